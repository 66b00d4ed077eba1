package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/simevents"
	"github.com/aretw0/simevents/internal/logging"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Block is the read-only view of a running block the server exposes.
type Block interface {
	ID() string
	Phase() domain.Phase
	Last() domain.Outputs
	Bindings() []domain.Binding
}

// Server serves the block status surface.
type Server struct {
	Block    Block
	Streams  *StreamManager
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams sets the stream manager feeding GET /events. Its Hooks must be attached to the
// block for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithGatherer exposes the given registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for a block.
func NewHandler(block Block, opts ...Option) http.Handler {
	server := &Server{Block: block}
	for _, opt := range opts {
		opt(server)
	}
	if server.Logger == nil {
		server.Logger = logging.NewNop()
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(0, server.Logger)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/outputs", server.GetOutputs)
	r.Get("/bindings", server.GetBindings)
	r.Get("/events", server.SubscribeEvents)
	if server.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

// GetHealth handles GET /health. It reports 503 once the block is terminated.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	phase := s.Block.Phase()
	if phase == domain.PhaseTerminated {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	s.writeJSON(w, map[string]string{"status": phase.String()})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":      "simevents",
		"version":  strings.TrimSpace(simevents.Version),
		"block_id": s.Block.ID(),
	})
}

// OutputsResponse is the body of GET /outputs.
type OutputsResponse struct {
	BlockID  string             `json:"block_id"`
	Phase    string             `json:"phase"`
	Outputs  []float64          `json:"outputs"`
	Channels map[string]float64 `json:"channels"`
}

// GetOutputs handles GET /outputs: the values written by the last successful step.
func (s *Server) GetOutputs(w http.ResponseWriter, r *http.Request) {
	last := s.Block.Last()
	resp := OutputsResponse{
		BlockID:  s.Block.ID(),
		Phase:    s.Block.Phase().String(),
		Outputs:  last[:],
		Channels: make(map[string]float64, domain.ChannelCount),
	}
	for i, v := range last {
		resp.Channels[domain.Channel(i).String()] = v
	}
	s.writeJSON(w, resp)
}

// BindingResponse describes one registered event and where it lands.
type BindingResponse struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	Masked  bool   `json:"masked"`
	Channel string `json:"channel,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

// GetBindings handles GET /bindings.
func (s *Server) GetBindings(w http.ResponseWriter, r *http.Request) {
	bindings := s.Block.Bindings()
	resp := make([]BindingResponse, len(bindings))
	for i, b := range bindings {
		resp[i] = BindingResponse{ID: uint32(b.ID), Name: b.Name, Masked: b.Masked}
		if rule, ok := domain.RuleFor(b.ID); ok {
			resp[i].Channel = rule.Channel.String()
			resp[i].Rule = rule.Kind.String()
		}
	}
	s.writeJSON(w, resp)
}

// SubscribeEvents handles GET /events (SSE). The optional watch query parameter is a
// comma-separated list of event types (initialize, step, terminate).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	watch := make(map[domain.EventType]bool)
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			watch[domain.EventType(strings.TrimSpace(t))] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()
	s.Logger.Info("SSE: client subscribed", "block_id", s.Block.ID())

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[msg.Type] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}

// EmitRequest is the body of POST /emit.
type EmitRequest struct {
	Connection string `json:"connection"`
	Event      string `json:"event"`
	Data       uint32 `json:"data"`
}

// NewEmitHandler creates the simulator-side handler: POST /emit pushes a named event through
// emitter, and bridge (if any) is mounted on /ws.
func NewEmitHandler(emitter ports.Emitter, bridge http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Post("/emit", func(w http.ResponseWriter, r *http.Request) {
		var body EmitRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			logger.Warn("Emit: Invalid request body", "error", err)
			return
		}
		if body.Connection == "" || body.Event == "" {
			http.Error(w, "connection and event are required", http.StatusBadRequest)
			return
		}
		if err := emitter.Emit(r.Context(), body.Connection, body.Event, body.Data); err != nil {
			http.Error(w, fmt.Sprintf("Emit error: %v", err), http.StatusBadGateway)
			logger.Error("Emit failed", "connection", body.Connection, "event", body.Event, "error", err)
			return
		}
		logger.Debug("emitted", "connection", body.Connection, "event", body.Event, "data", body.Data)
		w.WriteHeader(http.StatusAccepted)
	})
	if bridge != nil {
		r.Handle("/ws", bridge)
	}
	return enableCORS(r)
}
