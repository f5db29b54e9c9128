// Package runlog keeps the process-wide, append-only record of per-document
// outcomes for a run. Appends are serialized; every other piece of
// per-document state stays inside its worker.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"letterflow/schema"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Record is one document lifecycle event.
type Record struct {
	Time      time.Time        `json:"time"`
	RunID     string           `json:"run_id"`
	Doc       string           `json:"doc"`
	Stage     string           `json:"stage"`
	Status    string           `json:"status"` // entered | failed | persisted
	ErrorKind schema.ErrorKind `json:"error_kind,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Summary is the user-visible result of a run.
type Summary struct {
	Succeeded int
	Failed    map[schema.ErrorKind]int
}

// Total returns the number of documents with a recorded final outcome.
func (s Summary) Total() int {
	n := s.Succeeded
	for _, c := range s.Failed {
		n += c
	}
	return n
}

// RunLog appends JSON-line records to a file named by the run timestamp.
type RunLog struct {
	mu    sync.Mutex
	f     *os.File
	enc   *json.Encoder
	runID string

	succeeded int
	failed    map[schema.ErrorKind]int
}

// New creates the run log file under dir.
func New(dir string) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, schema.NewError(schema.KindConfiguration, err)
	}

	name := fmt.Sprintf("run_%s.log", time.Now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, schema.NewError(schema.KindConfiguration, err)
	}

	return &RunLog{
		f:      f,
		enc:    json.NewEncoder(f),
		runID:  uuid.NewString(),
		failed: map[schema.ErrorKind]int{},
	}, nil
}

// RunID identifies this run across log records.
func (l *RunLog) RunID() string { return l.runID }

// StageEntered records a document reaching a stage.
func (l *RunLog) StageEntered(doc, stage string) {
	l.append(Record{Doc: doc, Stage: stage, Status: "entered"})
}

// StageFailed records the terminal failure of a document with the stage it
// failed in and the classified error kind.
func (l *RunLog) StageFailed(doc, stage string, err error) {
	l.mu.Lock()
	l.failed[schema.KindOf(err)]++
	l.mu.Unlock()

	l.append(Record{
		Doc:       doc,
		Stage:     stage,
		Status:    "failed",
		ErrorKind: schema.KindOf(err),
		Message:   err.Error(),
	})
}

// Persisted records the successful final outcome of a document.
func (l *RunLog) Persisted(doc string) {
	l.mu.Lock()
	l.succeeded++
	l.mu.Unlock()

	l.append(Record{Doc: doc, Stage: "PERSISTED", Status: "persisted"})
}

// Summary reports run totals. Safe to call after all workers finished.
func (l *RunLog) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	failed := make(map[schema.ErrorKind]int, len(l.failed))
	for k, v := range l.failed {
		failed[k] = v
	}
	return Summary{Succeeded: l.succeeded, Failed: failed}
}

func (l *RunLog) Close() error {
	return l.f.Close()
}

func (l *RunLog) append(r Record) {
	r.Time = time.Now().UTC()
	r.RunID = l.runID

	// One writer at a time keeps records from interleaving.
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(r); err != nil {
		logger.Error("Failed to append run log record",
			zap.String("doc", r.Doc), zap.String("stage", r.Stage), zap.Error(err))
	}
}
