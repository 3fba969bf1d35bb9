// Package dijob runs background jobs, each run in its own [di.ServiceScope].
package dijob

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/dicontext"
	"github.com/sectrean/inject-kit/internal/errors"
)

// JobFunc is the body of a job.
// The provider belongs to a scope created for this run.
type JobFunc func(ctx context.Context, p *di.ServiceProvider) error

// Runner runs jobs against a root [di.ServiceProvider].
type Runner struct {
	provider *di.ServiceProvider
	logger   zerolog.Logger
}

// Option configures a [Runner].
type Option func(*Runner)

// WithLogger sets the logger used to report job runs.
// The default is a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a [Runner] for p.
func NewRunner(p *di.ServiceProvider, opts ...Option) (*Runner, error) {
	if p == nil {
		return nil, errors.New("dijob.NewRunner: provider is nil")
	}

	r := &Runner{
		provider: p,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Run executes fn once in a new scope.
//
// The scope's provider and a logger annotated with the job name are stored on the context
// passed to fn. The scope is closed when fn returns, even if ctx is already done.
// A panic in fn is recovered and returned as an error.
func (r *Runner) Run(ctx context.Context, name string, fn JobFunc) (err error) {
	scope := r.provider.NewScope()
	logger := r.logger.With().
		Str("job", name).
		Str("scope_id", scope.ID().String()).
		Logger()

	ctx = logger.WithContext(ctx)
	ctx = dicontext.WithProvider(ctx, scope.Provider())

	start := time.Now()
	defer func() {
		closeErr := scope.Close(context.WithoutCancel(ctx))
		err = errors.Join(err, closeErr)

		if err != nil {
			err = errors.Wrapf(err, "dijob.Runner.Run %s", name)
			logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
			return
		}
		logger.Info().Dur("duration", time.Since(start)).Msg("job completed")
	}()

	return r.call(ctx, scope.Provider(), fn)
}

func (r *Runner) call(ctx context.Context, p *di.ServiceProvider, fn JobFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("job panicked: %v", rec)
		}
	}()

	return fn(ctx, p)
}

// Every runs fn on every tick of interval until ctx is done, and returns ctx.Err().
//
// Failed runs are logged and do not stop the loop. Runs never overlap.
// The interval must be positive.
func (r *Runner) Every(ctx context.Context, interval time.Duration, name string, fn JobFunc) error {
	if interval <= 0 {
		return errors.Errorf("dijob.Runner.Every %s: invalid interval %s: must be positive", name, interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = r.Run(ctx, name, fn)
		}
	}
}
