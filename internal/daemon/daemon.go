package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reelsmith/internal/config"
	"reelsmith/internal/history"
	"reelsmith/internal/logging"
	"reelsmith/internal/serializer"
	"reelsmith/internal/sheetlog"
	"reelsmith/internal/studio"
)

const (
	shutdownCategory = "shutdown"
	shutdownMessage  = "daemon stopped before the request ran"
)

// Daemon coordinates the studio services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	studio *studio.Service
	queue  *serializer.Serializer
	sheets sheetlog.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	QueueDepth    int
	Busy          bool
	Cooldown      int
	HistoryDBPath string
	LockFilePath  string
	Summary       history.Summary
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *history.Store, studioSvc *studio.Service, queue *serializer.Serializer, sheets sheetlog.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || studioSvc == nil || queue == nil {
		return nil, errors.New("daemon requires config, store, studio, and serializer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		studio:   studioSvc,
		queue:    queue,
		sheets:   sheets,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsmith daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	apiSrv, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.releaseStart()
		return err
	}
	d.api = apiSrv
	if err := d.api.start(d.ctx); err != nil {
		d.releaseStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("reelsmith daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStart() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop shuts down the API, drains the serializer, and releases the lock.
// Requests still queued are dropped and their records marked failed.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()

	dropped := d.queue.Close()
	if dropped > 0 {
		d.logger.Warn("dropped queued requests on shutdown", logging.Int("dropped", dropped))
	}
	if failed, err := d.store.FailPending(context.Background(), shutdownCategory, shutdownMessage); err != nil {
		d.logger.Warn("failed to mark pending requests", logging.Error(err))
	} else if failed > 0 {
		d.logger.Info("marked interrupted requests failed", logging.Int64("count", failed))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelsmith daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound HTTP API address, or empty when disabled.
func (d *Daemon) APIAddr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	summary, err := d.store.Summarize(ctx)
	if err != nil {
		d.logger.Warn("summarize history failed", logging.Error(err))
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		QueueDepth:    d.queue.Len(),
		Busy:          d.queue.Busy(),
		Cooldown:      int(d.queue.Cooldown().Seconds()),
		HistoryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		Summary:       summary,
	}
}

// Studio exposes the generation operations.
func (d *Daemon) Studio() *studio.Service { return d.studio }

// ListHistory returns recent records, optionally filtered by status.
func (d *Daemon) ListHistory(ctx context.Context, status string, limit int) ([]*history.Record, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		return d.store.ListByStatus(ctx, history.Status(status))
	}
	return d.store.List(ctx, limit)
}

// GetRecord returns a single history record.
func (d *Daemon) GetRecord(ctx context.Context, id string) (*history.Record, error) {
	return d.store.Get(ctx, id)
}

// ClearHistory removes completed and failed records.
func (d *Daemon) ClearHistory(ctx context.Context) (int64, error) {
	return d.store.ClearTerminal(ctx)
}

// ClearFailedHistory removes failed records only.
func (d *Daemon) ClearFailedHistory(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// TestSheetLog posts a connectivity-test row to the configured webhook.
func (d *Daemon) TestSheetLog(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.SheetLog.WebhookURL) == "" {
		return false, "sheet log webhook not configured", nil
	}
	if err := d.sheets.TestEntry(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "sheet log entry posted", nil
}
