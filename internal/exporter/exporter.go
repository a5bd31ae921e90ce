package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/callscope/adminfeed/internal/model"
)

// Config holds exporter configuration.
type Config struct {
	Path          string        // Output file, appended to
	BatchSize     int           // Notifications per write (default: 50)
	FlushInterval time.Duration // Max time a notification sits unwritten (default: 2s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     50,
		FlushInterval: 2 * time.Second,
	}
}

// Exporter appends notifications to a JSON-lines archive file.
type Exporter struct {
	cfg    Config
	logger *slog.Logger

	input <-chan model.Notification
	file  *os.File

	batchMu sync.Mutex
	batch   []model.Notification

	// Serializes file writes between the consume and flush goroutines.
	fileMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	written int64
}

// New creates an exporter reading from input.
func New(cfg Config, input <-chan model.Notification, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("exporter path is required")
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}

	return &Exporter{
		cfg:    cfg,
		logger: logger,
		input:  input,
		file:   file,
		batch:  make([]model.Notification, 0, cfg.BatchSize),
	}, nil
}

// Start begins consuming and writing.
func (e *Exporter) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go e.consumeLoop()

	e.wg.Add(1)
	go e.flushLoop()

	e.logger.Info("notification exporter started",
		"path", e.cfg.Path,
		"batch_size", e.cfg.BatchSize,
		"flush_interval", e.cfg.FlushInterval,
	)
	return nil
}

// Stop drains the batch and closes the file.
func (e *Exporter) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("exporter stop timed out")
	}

	e.flush()
	err := e.file.Close()
	e.logger.Info("notification exporter stopped", "written", e.written)
	return err
}

func (e *Exporter) consumeLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case n, ok := <-e.input:
			if !ok {
				return
			}
			e.batchMu.Lock()
			e.batch = append(e.batch, n)
			full := len(e.batch) >= e.cfg.BatchSize
			e.batchMu.Unlock()

			if full {
				e.flush()
			}
		}
	}
}

func (e *Exporter) flushLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.flush()
		}
	}
}

// flush writes the pending batch as JSON lines.
func (e *Exporter) flush() {
	e.batchMu.Lock()
	if len(e.batch) == 0 {
		e.batchMu.Unlock()
		return
	}
	pending := e.batch
	e.batch = make([]model.Notification, 0, e.cfg.BatchSize)
	e.batchMu.Unlock()

	e.fileMu.Lock()
	defer e.fileMu.Unlock()

	for _, n := range pending {
		line, err := json.Marshal(n)
		if err != nil {
			e.logger.Error("marshal notification", "id", n.ID, "error", err)
			continue
		}
		if _, err := e.file.Write(append(line, '\n')); err != nil {
			e.logger.Error("write archive", "error", err)
			return
		}
		e.written++
	}
}
