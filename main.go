package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"letterflow/appconfig"
	"letterflow/llm"
	"letterflow/ocr"
	"letterflow/pipeline"
	"letterflow/preprocess"
	"letterflow/runlog"
	"letterflow/schema"
	"letterflow/store"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	cfg := &appconfig.AppConfig{}
	if err := config.LoadConfig("config.ini", cfg); err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.TmpDir, 0o755); err != nil {
		logger.Fatal("Failed to create tmp dir", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Fatal("Failed to create output dir", zap.Error(err))
	}

	// catch SIGINT/SIGTERM -> cancel
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	runLog, err := runlog.New(cfg.OutputDir)
	if err != nil {
		logger.Fatal("Failed to create run log", zap.Error(err))
	}
	defer runLog.Close()

	ocrProvider, err := ocr.NewProvider(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create OCR provider", zap.Error(err))
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	docs, err := enumerateDocuments(ctx, cfg.InputDir)
	if err != nil {
		logger.Fatal("Failed to enumerate input documents", zap.Error(err))
	}

	logger.Info("OCR processing pipeline started",
		zap.String("run", runLog.RunID()),
		zap.String("ocr", ocrProvider.Name()),
		zap.String("llm", llmClient.GetModel()),
		zap.Int("documents", len(docs)),
		zap.Int("batchSize", cfg.BatchSize),
		zap.Int("maxThreads", cfg.MaxThreads))

	scheduler := &pipeline.Scheduler{
		Pipeline: &pipeline.Pipeline{
			OCR:       ocrProvider,
			LLM:       llmClient,
			Converter: &preprocess.Converter{Command: cfg.ConvertCommand, TmpDir: cfg.TmpDir},
			Store:     &store.FSStore{OutputDir: cfg.OutputDir},
			Log:       runLog,
		},
		BatchSize:  cfg.BatchSize,
		MaxThreads: cfg.MaxThreads,
		TmpDir:     cfg.TmpDir,
	}
	scheduler.Run(ctx, docs)

	summary := runLog.Summary()
	fields := []zap.Field{
		zap.Int("documents", summary.Total()),
		zap.Int("succeeded", summary.Succeeded),
		zap.Duration("elapsed", time.Since(start)),
	}
	for kind, count := range summary.Failed {
		fields = append(fields, zap.Int("failed_"+string(kind), count))
	}
	logger.Info("Run finished", fields...)
}

// enumerateDocuments lists the supported scans in the input directory. The
// document set is fixed at this point; order follows the directory listing.
func enumerateDocuments(ctx context.Context, inputDir string) ([]*schema.Document, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	supported, err := linq.Pipe2(
		linq.FromSlice(ctx, names),
		linq.Where(func(name string) bool { return supportedScan(name) }),
		linq.ToSlice[string](),
	)
	if err != nil {
		return nil, err
	}

	docs := make([]*schema.Document, 0, len(supported))
	for _, name := range supported {
		docs = append(docs, &schema.Document{
			SourcePath: filepath.Join(inputDir, name),
			Stem:       strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}
	return docs, nil
}

func supportedScan(name string) bool {
	if strings.HasPrefix(name, "._") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".pdf", ".tif", ".tiff":
		return true
	}
	return false
}
