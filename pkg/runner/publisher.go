package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/simevents/pkg/domain"
)

// Publisher receives the outputs of each successful step.
type Publisher interface {
	Publish(ctx context.Context, step uint64, outputs domain.Outputs) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, step uint64, outputs domain.Outputs) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, step uint64, outputs domain.Outputs) error {
	return f(ctx, step, outputs)
}

// JSONPublisher writes one JSON object per step (JSON Lines).
type JSONPublisher struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONPublisher creates a JSON Lines publisher on w (Stdout if nil).
func NewJSONPublisher(w io.Writer) *JSONPublisher {
	if w == nil {
		w = os.Stdout
	}
	return &JSONPublisher{encoder: json.NewEncoder(w)}
}

type stepLine struct {
	Step    uint64             `json:"step"`
	Outputs map[string]float64 `json:"outputs"`
}

func (p *JSONPublisher) Publish(ctx context.Context, step uint64, outputs domain.Outputs) error {
	line := stepLine{Step: step, Outputs: make(map[string]float64, domain.ChannelCount)}
	for i, v := range outputs {
		line.Outputs[domain.Channel(i).String()] = v
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(line)
}

// TextPublisher writes a compact human-readable line per step, listing only active channels.
type TextPublisher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextPublisher creates a text publisher on w (Stdout if nil).
func NewTextPublisher(w io.Writer) *TextPublisher {
	if w == nil {
		w = os.Stdout
	}
	return &TextPublisher{w: w}
}

func (p *TextPublisher) Publish(ctx context.Context, step uint64, outputs domain.Outputs) error {
	var active []string
	for i, v := range outputs {
		if v != 0 {
			active = append(active, fmt.Sprintf("%s=%g", domain.Channel(i), v))
		}
	}
	if len(active) == 0 {
		active = append(active, "-")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "step %d: %s\n", step, strings.Join(active, " "))
	return err
}
