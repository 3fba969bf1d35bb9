// Command didemo runs the inject-kit example service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/dijob"
	"github.com/sectrean/inject-kit/internal/errors"
)

var (
	configFile string
	envFile    string
	jobOnce    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "didemo",
	Short:         "inject-kit example service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to an optional .env file")

	jobCmd.Flags().BoolVar(&jobOnce, "once", false, "run the job a single time and exit")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jobCmd)
}

// setup loads the config and builds the app. The caller must close the provider.
func setup() (Config, *App, error) {
	cfg, err := LoadConfig(configFile, envFile)
	if err != nil {
		return cfg, nil, err
	}

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return cfg, nil, err
	}

	app, err := NewApp(logger, nil)
	return cfg, app, err
}

func closeApp(app *App) {
	if err := app.Provider.Close(context.Background()); err != nil {
		app.Logger.Error().Err(err).Msg("close provider")
	}
}

// didemo serve: start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, app, err := setup()
		if err != nil {
			return err
		}
		defer closeApp(app)

		handler, err := app.Router()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, app, cfg.HTTP, handler)
	},
}

func serve(ctx context.Context, app *App, cfg HTTPConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info().Str("addr", cfg.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	app.Logger.Info().Msg("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return nil
}

// didemo job: run the report job on an interval.
var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Run the report job in a fresh scope on every tick",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, app, err := setup()
		if err != nil {
			return err
		}
		defer closeApp(app)

		runner, err := dijob.NewRunner(app.Provider, dijob.WithLogger(app.Logger))
		if err != nil {
			return err
		}

		if jobOnce {
			return runner.Run(cmd.Context(), "report", report)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = runner.Every(ctx, cfg.Job.Interval, "report", report)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// report is the body of the job command.
func report(ctx context.Context, p *di.ServiceProvider) error {
	id, err := di.Resolve[*RequestID](ctx, p)
	if err != nil {
		return err
	}
	logger, err := di.Resolve[*Logger](ctx, p)
	if err != nil {
		return err
	}
	clock, err := di.Resolve[*Clock](ctx, p)
	if err != nil {
		return err
	}

	logger.Info().
		Str("request_id", id.ID.String()).
		Dur("process_uptime", clock.Uptime()).
		Msg("report")
	return nil
}
