package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/simevents"
	"github.com/aretw0/simevents/internal/config"
	"github.com/aretw0/simevents/internal/logging"
	httpAdapter "github.com/aretw0/simevents/pkg/adapters/http"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/observability"
	"github.com/aretw0/simevents/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	Config *config.Config
	Stdout io.Writer
	Logger *slog.Logger
	// Listener overrides cfg.HTTP.Listen (used by tests to bind an ephemeral port).
	Listener net.Listener
}

// createLogger builds the application logger from the log section.
func createLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	return logging.NewWithWriter(w, level, cfg.JSON), nil
}

func createPublisher(output string, w io.Writer) runner.Publisher {
	switch output {
	case config.OutputText:
		return runner.NewTextPublisher(w)
	case config.OutputNone:
		return nil
	default:
		return runner.NewJSONPublisher(w)
	}
}

// Run builds the block from configuration and drives it until ctx is cancelled or the
// runner stops. When cfg.HTTP.Listen is set (or a Listener is given) the status surface is
// served for the duration of the run.
func Run(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = createLogger(cfg.Log, nil); err != nil {
			return err
		}
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	backend, err := createBackend(cfg.Source, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logger.Warn("Failed to close source", "error", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	streams := httpAdapter.NewStreamManager(0, logger)

	blockOpts := []simevents.Option{
		simevents.WithLogger(logger),
		simevents.WithGroup(domain.GroupID(cfg.Block.Group)),
		simevents.WithPriority(domain.Priority(cfg.Block.Priority)),
		simevents.WithLifecycleHooks(observability.Compose(
			metrics.Hooks(),
			streams.Hooks(),
			createDebugHooks(logger),
		)),
	}
	if cfg.Block.ID != "" {
		blockOpts = append(blockOpts, simevents.WithBlockID(cfg.Block.ID))
	}
	block := simevents.New(backend.Source, blockOpts...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	listener := opts.Listener
	if listener == nil && cfg.HTTP.Listen != "" {
		if listener, err = net.Listen("tcp", cfg.HTTP.Listen); err != nil {
			return fmt.Errorf("listen %s: %w", cfg.HTTP.Listen, err)
		}
	}
	if listener != nil {
		r := chi.NewRouter()
		if backend.Emitter != nil {
			r.Mount("/sim", httpAdapter.NewEmitHandler(backend.Emitter, nil, logger))
		}
		r.Handle("/*", httpAdapter.NewHandler(block,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithGatherer(reg),
			httpAdapter.WithLogger(logger),
		))
		srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			logger.Info("Starting status server", "addr", listener.Addr().String())
			if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
				cancel()
			}
		}()
		defer shutdown(srv, logger)
	}

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithPeriod(cfg.Runner.Period),
		runner.WithMaxSteps(cfg.Runner.MaxSteps),
		runner.WithChangesOnly(cfg.Runner.ChangesOnly),
		runner.WithPublisher(createPublisher(cfg.Runner.Output, stdout)),
	)
	runErr := r.Run(runCtx, block, cfg.Params())

	select {
	case err := <-serverErr:
		return fmt.Errorf("status server: %w", err)
	default:
	}
	return runErr
}

func shutdown(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("Error killing server", "error", err)
		}
	}
}
