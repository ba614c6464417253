// Package batch implements the batch drivers: transcription job
// submission, status changes, character replacement, page XML export
// and model validation. Each driver logs to its own run log file and
// accumulates results into CSV exports.
package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Run is one batch run's logging context. Diagnostics go to the log
// file; the console only announces where the log file is.
type Run struct {
	ID      string
	LogPath string
	Logger  *slog.Logger

	file *os.File
}

// StartRun opens a timestamped log file for the named driver in the
// output directory and returns a Run whose logger writes to it.
func StartRun(name, outputDir string) (*Run, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.log", name, time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	runID := uuid.New().String()
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("run_id", runID)

	fmt.Printf("Consider the logfile %s for information about the run.\n", logPath)
	logger.Info("run started", "driver", name)

	return &Run{
		ID:      runID,
		LogPath: logPath,
		Logger:  logger,
		file:    file,
	}, nil
}

// Close flushes and closes the run's log file.
func (r *Run) Close() error {
	r.Logger.Info("run finished")
	return r.file.Close()
}
