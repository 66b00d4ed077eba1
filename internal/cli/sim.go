package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/simevents/internal/logging"
	httpAdapter "github.com/aretw0/simevents/pkg/adapters/http"
	"github.com/aretw0/simevents/pkg/adapters/websocket"
)

// SimOptions configures the standalone simulator bridge.
type SimOptions struct {
	Listen  string
	Refused []string
	Logger  *slog.Logger
	// Listener overrides Listen.
	Listener net.Listener
	// Ready, if set, receives the bound address once the server accepts connections.
	Ready chan<- string
}

// RunSimulator serves the websocket bridge on /ws and POST /emit until ctx is cancelled.
func RunSimulator(ctx context.Context, opts SimOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	sim := websocket.NewSimulator(
		websocket.WithSimulatorLogger(logger),
		websocket.WithRefusedEvents(opts.Refused...),
	)

	listener := opts.Listener
	if listener == nil {
		var err error
		if listener, err = net.Listen("tcp", opts.Listen); err != nil {
			return fmt.Errorf("listen %s: %w", opts.Listen, err)
		}
	}

	srv := &http.Server{
		Handler:           httpAdapter.NewEmitHandler(sim, sim, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(listener)
	}()
	logger.Info("Simulator listening", "addr", listener.Addr().String())
	if opts.Ready != nil {
		opts.Ready <- listener.Addr().String()
	}

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("simulator server: %w", err)
	case <-ctx.Done():
		logger.Info("Simulator shutting down")
		shutdown(srv, logger)
		return nil
	}
}
