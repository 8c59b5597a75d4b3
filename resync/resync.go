// Package resync triggers periodic reconciliation passes on an appshell
// orchestrator.
//
// Reconciliation is normally driven by navigation changes, but the world
// can drift without one: a registration deferred by a manifest apply, an
// application left in a failed state after a reset, an activation
// predicate that depends on time. A Resyncer repairs that drift by
// requesting a pass on a cron schedule, using the same coalescing
// reconciliation path as navigation, so a resync that races a navigation
// change collapses into a single pass.
package resync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/appshell"
)

// Static error definitions for the resync package.
var (
	// ErrShellNil is returned when a resyncer is created without a shell.
	ErrShellNil = errors.New("shell cannot be nil")

	// ErrInvalidSchedule is returned when the cron expression does not parse.
	ErrInvalidSchedule = errors.New("invalid resync schedule")

	// ErrResyncerStarted is returned when starting an already-started resyncer.
	ErrResyncerStarted = errors.New("resyncer already started")

	// ErrResyncerNotStarted is returned when stopping a resyncer that is
	// not running.
	ErrResyncerNotStarted = errors.New("resyncer not started")
)

// defaultTriggerTimeout bounds how long one scheduled pass may take.
const defaultTriggerTimeout = 30 * time.Second

// Config defines the configuration for periodic resynchronization.
type Config struct {
	// Schedule is the cron expression for periodic reconciliation.
	// Empty disables resync.
	Schedule string `yaml:"schedule" json:"schedule" toml:"schedule" env:"SCHEDULE" desc:"Cron expression for periodic reconciliation (empty disables resync)"`

	// Timeout bounds a single scheduled reconciliation pass.
	Timeout time.Duration `yaml:"timeout" json:"timeout" toml:"timeout" env:"TIMEOUT" default:"30s" desc:"Per-pass trigger timeout"`
}

// Enabled reports whether a schedule is configured.
func (c *Config) Enabled() bool {
	return c.Schedule != ""
}

// Validate implements appshell.ConfigValidator.
func (c *Config) Validate() error {
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", appshell.ErrConfigValidationFailed)
	}
	return nil
}

// Resyncer requests reconciliation passes on a cron schedule.
type Resyncer struct {
	shell    *appshell.Shell
	logger   appshell.Logger
	schedule string
	timeout  time.Duration

	mu      sync.Mutex
	started bool
	cron    *cron.Cron
}

// Option configures a Resyncer.
type Option func(*Resyncer)

// WithLogger sets the logger used for pass reporting.
func WithLogger(logger appshell.Logger) Option {
	return func(r *Resyncer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTriggerTimeout bounds how long one scheduled pass may take.
func WithTriggerTimeout(d time.Duration) Option {
	return func(r *Resyncer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New creates a resyncer that requests a reconciliation pass on the given
// cron schedule (standard five-field format, or descriptors like
// "@every 5m" and "@hourly").
func New(shell *appshell.Shell, schedule string, opts ...Option) (*Resyncer, error) {
	if shell == nil {
		return nil, ErrShellNil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	r := &Resyncer{
		shell:    shell,
		schedule: schedule,
		timeout:  defaultTriggerTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start begins the schedule. The shell should already be started;
// scheduled passes that find it stopped are skipped.
func (r *Resyncer) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrResyncerStarted
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.schedule, r.runPass); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	r.cron.Start()
	r.started = true

	if r.logger != nil {
		r.logger.Info("Resync started", "schedule", r.schedule)
	}
	return nil
}

// Stop halts the schedule, waiting for an in-flight pass to complete or
// for ctx to expire.
func (r *Resyncer) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return ErrResyncerNotStarted
	}

	cronCtx := r.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		return fmt.Errorf("resync shutdown: %w", ctx.Err())
	}

	r.started = false
	if r.logger != nil {
		r.logger.Info("Resync stopped")
	}
	return nil
}

// runPass is the cron callback. It re-evaluates the current location so
// state that drifted since the last navigation change gets repaired.
func (r *Resyncer) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.shell.TriggerReconciliation(ctx, nil)
	switch {
	case err == nil:
		if r.logger != nil {
			r.logger.Debug("Resync pass completed")
		}
	case errors.Is(err, appshell.ErrShellNotStarted):
		if r.logger != nil {
			r.logger.Debug("Resync pass skipped, shell not started")
		}
	default:
		if r.logger != nil {
			r.logger.Error("Resync pass failed", "error", err)
		}
	}
}
