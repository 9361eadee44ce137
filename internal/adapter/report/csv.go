// Package report appends assessment records to a flat CSV audit log so runs
// remain reviewable without any downstream infrastructure.
package report

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
)

// CSVLog appends assessment records to a CSV file, writing the header only
// when the file is new. It implements the http adapter's Sink.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVLog creates a CSV audit log at path. The file is created lazily on
// the first record.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

// Record appends one assessment row.
func (l *CSVLog) Record(_ context.Context, rec domain.AssessmentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat audit log: %w", err)
	}

	rows := []domain.AssessmentRecord{rec}
	writer := gocsv.DefaultCSVWriter(file)
	if info.Size() == 0 {
		err = gocsv.MarshalCSV(&rows, writer)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(&rows, writer)
	}
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// Name identifies the sink in logs and metrics.
func (l *CSVLog) Name() string { return "csv" }
