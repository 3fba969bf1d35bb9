package dijob_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/dicontext"
	"github.com/sectrean/inject-kit/dijob"
	"github.com/sectrean/inject-kit/internal/mocks"
	"github.com/sectrean/inject-kit/internal/testtypes"
)

func newProvider(t *testing.T, regs ...di.Registration) *di.ServiceProvider {
	t.Helper()

	regs = append(regs,
		di.Singleton[testtypes.Clock](),
		di.Scoped[testtypes.RequestID](),
	)
	p := di.NewServiceCollection().Add(regs...).Build()
	t.Cleanup(func() {
		_ = p.Close(context.Background())
	})
	return p
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

func Test_NewRunner_NilProvider(t *testing.T) {
	r, err := dijob.NewRunner(nil)
	assert.Nil(t, r)
	assert.EqualError(t, err, "dijob.NewRunner: provider is nil")
}

func Test_Runner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("scope per run", func(t *testing.T) {
		p := newProvider(t)
		r, err := dijob.NewRunner(p)
		require.NoError(t, err)

		var ids []*testtypes.RequestID
		job := func(ctx context.Context, sp *di.ServiceProvider) error {
			assert.False(t, sp.IsRoot())
			assert.Same(t, sp, dicontext.Provider(ctx))

			id, err := di.Resolve[*testtypes.RequestID](ctx, sp)
			if err != nil {
				return err
			}
			same := dicontext.MustResolve[*testtypes.RequestID](ctx)
			assert.Same(t, id, same)

			ids = append(ids, id)
			return nil
		}

		require.NoError(t, r.Run(ctx, "first", job))
		require.NoError(t, r.Run(ctx, "second", job))

		require.Len(t, ids, 2)
		assert.NotSame(t, ids[0], ids[1])
	})

	t.Run("job error", func(t *testing.T) {
		var buf bytes.Buffer
		r, err := dijob.NewRunner(newProvider(t), dijob.WithLogger(zerolog.New(&buf)))
		require.NoError(t, err)

		boom := errors.New("boom")
		err = r.Run(ctx, "fails", func(context.Context, *di.ServiceProvider) error {
			return boom
		})

		require.ErrorIs(t, err, boom)
		assert.EqualError(t, err, "dijob.Runner.Run fails: boom")

		lines := logLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "error", lines[0]["level"])
		assert.Equal(t, "job failed", lines[0]["message"])
		assert.Equal(t, "fails", lines[0]["job"])
		assert.NotEmpty(t, lines[0]["scope_id"])
	})

	t.Run("success logged", func(t *testing.T) {
		var buf bytes.Buffer
		r, err := dijob.NewRunner(newProvider(t), dijob.WithLogger(zerolog.New(&buf)))
		require.NoError(t, err)

		err = r.Run(ctx, "ok", func(ctx context.Context, _ *di.ServiceProvider) error {
			zerolog.Ctx(ctx).Info().Msg("working")
			return nil
		})
		require.NoError(t, err)

		lines := logLines(t, &buf)
		require.Len(t, lines, 2)
		assert.Equal(t, "working", lines[0]["message"])
		assert.Equal(t, "ok", lines[0]["job"])
		assert.Equal(t, "job completed", lines[1]["message"])
		assert.Contains(t, lines[1], "duration")
	})

	t.Run("panic recovered", func(t *testing.T) {
		r, err := dijob.NewRunner(newProvider(t))
		require.NoError(t, err)

		err = r.Run(ctx, "panics", func(context.Context, *di.ServiceProvider) error {
			panic("oops")
		})
		assert.EqualError(t, err, "dijob.Runner.Run panics: job panicked: oops")
	})

	t.Run("scope closed after run", func(t *testing.T) {
		closer := mocks.NewCloserMock(errors.New("close failed"))
		p := newProvider(t, di.ScopedFunc(func(context.Context, *di.Injector) (*mocks.CloserMock, error) {
			return closer, nil
		}))
		r, err := dijob.NewRunner(p)
		require.NoError(t, err)

		var scoped *di.ServiceProvider
		err = r.Run(ctx, "closes", func(ctx context.Context, sp *di.ServiceProvider) error {
			scoped = sp
			_, err := di.Resolve[*mocks.CloserMock](ctx, sp)
			return err
		})

		assert.ErrorContains(t, err, "close failed")
		closer.AssertExpectations(t)

		_, err = di.Resolve[*testtypes.RequestID](ctx, scoped)
		assert.ErrorIs(t, err, di.ErrScopeClosed)
	})

	t.Run("cancelled context still closes scope", func(t *testing.T) {
		closer := mocks.NewCloserMock(nil)
		p := newProvider(t, di.ScopedFunc(func(context.Context, *di.Injector) (*mocks.CloserMock, error) {
			return closer, nil
		}))
		r, err := dijob.NewRunner(p)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(ctx)
		err = r.Run(ctx, "cancel", func(ctx context.Context, sp *di.ServiceProvider) error {
			_, err := di.Resolve[*mocks.CloserMock](ctx, sp)
			cancel()
			return err
		})

		assert.NoError(t, err)
		closer.AssertExpectations(t)
	})
}

func Test_Runner_Every_InvalidInterval(t *testing.T) {
	r, err := dijob.NewRunner(newProvider(t))
	require.NoError(t, err)

	var ran bool
	job := func(context.Context, *di.ServiceProvider) error {
		ran = true
		return nil
	}

	err = r.Every(context.Background(), 0, "tick", job)
	assert.EqualError(t, err, "dijob.Runner.Every tick: invalid interval 0s: must be positive")

	err = r.Every(context.Background(), -time.Second, "tick", job)
	assert.EqualError(t, err, "dijob.Runner.Every tick: invalid interval -1s: must be positive")

	assert.False(t, ran)
}

func Test_Runner_Every(t *testing.T) {
	p := newProvider(t)
	r, err := dijob.NewRunner(p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- r.Every(ctx, time.Millisecond, "tick", func(context.Context, *di.ServiceProvider) error {
			select {
			case runs <- struct{}{}:
			default:
			}
			return errors.New("ignored")
		})
	}()

	for range 3 {
		select {
		case <-runs:
		case <-time.After(time.Second):
			t.Fatal("job did not run")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Every did not stop")
	}
}
