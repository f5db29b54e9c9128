// Package preprocess prepares input files for OCR: image-to-PDF conversion
// through the configured external command and page counting of the prepared
// document.
package preprocess

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"letterflow/schema"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// Converter shells out to an ImageMagick-style command for image-to-PDF
// conversion. The command itself is an external collaborator; only its
// invocation lives here.
type Converter struct {
	Command string
	TmpDir  string
}

// Prepare resolves the file the OCR backend will receive and records the
// document's page count. Images are converted to PDF only when the backend
// demands it; PDFs pass through untouched.
func (c *Converter) Prepare(ctx context.Context, doc *schema.Document, pdfOnly bool) error {
	ext := strings.ToLower(filepath.Ext(doc.SourcePath))

	if ext == ".pdf" {
		doc.PreparedPath = doc.SourcePath
	} else if !pdfOnly {
		doc.PreparedPath = doc.SourcePath
		doc.PageCount = 1
		return nil
	} else {
		pdfPath := filepath.Join(c.TmpDir, doc.Stem+".pdf")
		if err := c.convertToPDF(ctx, doc.SourcePath, pdfPath); err != nil {
			return schema.NewError(schema.KindPreprocess, err)
		}
		logger.Info("Converted image to PDF", zap.String("doc", doc.Stem), zap.String("pdf", pdfPath))
		doc.PreparedPath = pdfPath
	}

	count, err := api.PageCountFile(doc.PreparedPath)
	if err != nil {
		return schema.NewError(schema.KindPreprocess,
			fmt.Errorf("counting pages of %s: %w", doc.Stem, err))
	}
	doc.PageCount = count
	return nil
}

func (c *Converter) convertToPDF(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, c.Command, src, dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", c.Command, src, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CleanTmp removes everything inside the tmp dir. Called between batches so
// converted PDFs do not pile up over a long run.
func CleanTmp(tmpDir string) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		logger.Error("Failed to read tmp dir", zap.String("dir", tmpDir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(tmpDir, e.Name())); err != nil {
			logger.Error("Failed to remove tmp file", zap.String("file", e.Name()), zap.Error(err))
		}
	}
}
