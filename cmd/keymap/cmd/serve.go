package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/keymap/internal/keymap"
	"github.com/psantana5/keymap/internal/server"
	"github.com/psantana5/keymap/internal/shutdown"
	"github.com/psantana5/keymap/pkg/logging"
)

const (
	limiterIdleTimeout = 10 * time.Minute
	maintenanceEvery   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve [file...]",
	Short: "Serve the store over a read-only HTTP API",
	Long: `Load the given files into the store, then serve it over HTTP until
interrupted:

  GET /keys              all pairs in key order
  GET /keys?value=v      pairs whose value is v
  GET /keys/{key}        one pair, 404 if absent
  GET /healthz           program name, exit status, date and key count
  GET /metrics           Prometheus metrics

Each client is rate limited; excess requests get 429.

Example:
  keymap serve --addr :8080 fruit.txt
  keymap serve --store sqlite --db keys.db --log-dir ./logs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().Float64("rate-limit", 10, "requests per second allowed per client")
	serveCmd.Flags().Int("burst", 20, "request burst allowed per client")
	serveCmd.Flags().String("log-dir", "", "also write logs to <log-dir>/serve.log")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := env.logger
	if dir := env.cfg.Serve.LogDir; dir != "" {
		fileLogger, err := logging.NewFileLogger(env.info.ExecName(), dir, "serve", env.level, env.cfg.LogJSON)
		if err != nil {
			return err
		}
		logger = fileLogger.WithField("run_id", env.info.RunID())
	}

	store, err := env.openStore()
	if err != nil {
		return err
	}

	stopper := shutdown.New(5*time.Second, env.info, logger)
	stopper.Register("log file", shutdown.CloseResource(logger))
	stopper.Register("store", shutdown.CloseResource(store))
	defer stopper.Shutdown()

	if len(args) > 0 {
		loader := &keymap.Interpreter{
			Store:   store,
			Out:     io.Discard,
			Info:    env.info,
			Logger:  logger,
			Metrics: env.metrics,
		}
		if err := loader.Run(ctx, args); err != nil {
			return err
		}
	}

	limiter := server.NewLimiter(env.cfg.Serve.RateLimit, env.cfg.Serve.Burst)
	go maintain(ctx, limiter, logger, env.cfg.Serve.MaxLogSize)

	srv := server.New(store, env.info, logger, env.metrics, limiter)
	if err := srv.ListenAndServe(ctx, env.cfg.Serve.Addr); err != nil {
		env.info.SyscallError(env.cfg.Serve.Addr, err)
		return nil
	}
	logger.Info("server stopped")
	return nil
}

// maintain periodically forgets idle clients and rotates the log file
func maintain(ctx context.Context, limiter *server.Limiter, logger *logging.Logger, maxLogSize int64) {
	ticker := time.NewTicker(maintenanceEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := limiter.Cleanup(limiterIdleTimeout); dropped > 0 {
				logger.Debug("dropped idle clients", map[string]interface{}{"count": dropped})
			}
			if rotated, err := logger.RotateIfNeeded(maxLogSize); err != nil {
				logger.Warn("log rotation failed", map[string]interface{}{"error": err.Error()})
			} else if rotated {
				logger.Info("log file rotated")
			}
		}
	}
}
