package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/simevents/internal/config"
	"github.com/aretw0/simevents/pkg/adapters/memory"
	"github.com/aretw0/simevents/pkg/adapters/redis"
	"github.com/aretw0/simevents/pkg/adapters/websocket"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
)

// Backend is an event source built from configuration.
type Backend struct {
	Source ports.EventSource
	// Emitter is set when the backend can also inject events (memory, redis).
	Emitter ports.Emitter
	Close   func() error
}

// createBackend builds the event source selected by cfg.Source.Backend.
func createBackend(cfg config.SourceConfig, logger *slog.Logger) (*Backend, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		src := memory.NewSource()
		return &Backend{Source: src, Emitter: src, Close: noop}, nil

	case config.BackendRedis:
		src := redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithMaxLen(cfg.Redis.MaxLen),
		)
		return &Backend{Source: src, Emitter: src, Close: src.Close}, nil

	case config.BackendWebsocket:
		src := websocket.NewSource(cfg.Websocket.URL,
			websocket.WithRequestTimeout(cfg.Websocket.Timeout),
			websocket.WithLogger(logger),
		)
		return &Backend{Source: src, Close: noop}, nil
	}
	return nil, fmt.Errorf("%w: unknown source backend %q", domain.ErrConfiguration, cfg.Backend)
}

// createDebugHooks logs every lifecycle event at debug level.
func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInitialize: func(ctx context.Context, e *domain.LifecycleEvent) {
			logger.Debug("Initialize", "connection", e.ConnectionName, "phase", e.Phase.String(), "error", e.Err)
		},
		OnRecord: func(ctx context.Context, e *domain.DispatchEvent) {
			logger.Debug("Record", "kind", e.Record.Kind.String(), "event_id", e.Record.EventID,
				"data", e.Record.Data, "applied", e.Applied)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.Debug("Step (Error)", "step", e.Step, "error", e.Err)
				return
			}
			if e.Records > 0 {
				logger.Debug("Step", "step", e.Step, "records", e.Records, "outputs", e.Outputs)
			}
		},
		OnTerminate: func(ctx context.Context, e *domain.LifecycleEvent) {
			logger.Debug("Terminate", "connection", e.ConnectionName, "error", e.Err)
		},
	}
}
