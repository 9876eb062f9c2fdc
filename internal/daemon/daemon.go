// Package daemon runs the refresh loop as a single-instance background
// process. A flock on the data directory guards against concurrent daemons;
// the loop spaces cycles by the configured interval plus jitter so restarts
// across many installs don't synchronize against the source.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"streamwatch/internal/config"
	"streamwatch/internal/logging"
)

// Cycler executes one refresh cycle; satisfied by *pipeline.Runner.
type Cycler interface {
	RunCycle(ctx context.Context) error
}

// Daemon owns the refresh loop lifecycle and the single-instance lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	runner Cycler

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	Interval     time.Duration
}

// New constructs a daemon. The lock file lives beside the data it protects.
func New(cfg *config.Config, runner Cycler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "streamwatch.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "daemon")),
		runner:   runner,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the refresh loop. The first
// cycle runs immediately.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another streamwatch instance is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(d.done)
		d.loop(loopCtx)
	}()

	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("interval_seconds", d.cfg.Workflow.RefreshInterval))
	return nil
}

// Stop cancels the loop, waits for an in-flight cycle to finish, and
// releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// RunOnce executes a single cycle under the instance lock and exits. Used by
// the --once flag and cron-style deployments.
func (d *Daemon) RunOnce(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another streamwatch instance is already running")
	}
	defer func() {
		if unlockErr := d.lock.Unlock(); unlockErr != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(unlockErr))
		}
	}()
	return d.runner.RunCycle(ctx)
}

// Status reports the daemon's runtime state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		Interval:     time.Duration(d.cfg.Workflow.RefreshInterval) * time.Second,
	}
}

// Done exposes loop completion for callers that block until shutdown.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

func (d *Daemon) loop(ctx context.Context) {
	for {
		if err := d.runner.RunCycle(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("cycle failed, will retry next interval", logging.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.nextDelay()):
		}
	}
}

// nextDelay returns the refresh interval with symmetric jitter applied.
func (d *Daemon) nextDelay() time.Duration {
	interval := time.Duration(d.cfg.Workflow.RefreshInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	jitter := time.Duration(d.cfg.Workflow.JitterSeconds) * time.Second
	if jitter <= 0 {
		return interval
	}
	offset := time.Duration(rand.Int63n(int64(2*jitter))) - jitter
	if interval+offset <= 0 {
		return interval
	}
	return interval + offset
}
