package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
)

// DrainStats summarizes one drain window.
type DrainStats struct {
	Records int // Records returned by the source
	Applied int // Records that updated the accumulator
	Ignored int // Protocol noise: other kinds or unknown indices
}

// Pump drains pending records from a connection into an accumulator.
type Pump struct {
	blockID string
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

// NewPump creates a dispatch pump.
func NewPump(blockID string, logger *slog.Logger, hooks domain.LifecycleHooks) *Pump {
	return &Pump{blockID: blockID, logger: logger, hooks: hooks}
}

// Drain consumes records until the connection reports none pending. It never waits for
// new records. Any error other than domain.ErrNoPendingRecord also ends the drain.
func (p *Pump) Drain(ctx context.Context, conn ports.Connection, acc *domain.Accumulator) DrainStats {
	var stats DrainStats
	for {
		rec, err := conn.Next(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNoPendingRecord) {
				p.logger.Warn("dispatch ended with error", "records", stats.Records, "error", err)
			}
			return stats
		}

		stats.Records++
		applied := acc.Apply(rec)
		if applied {
			stats.Applied++
		} else {
			stats.Ignored++
			p.logger.Debug("ignoring record", "kind", rec.Kind.String(), "event_id", rec.EventID)
		}

		if p.hooks.OnRecord != nil {
			p.hooks.OnRecord(ctx, &domain.DispatchEvent{
				EventBase: domain.EventBase{
					Timestamp: time.Now(),
					Type:      domain.EventDispatch,
					BlockID:   p.blockID,
				},
				Record:  rec,
				Applied: applied,
			})
		}
	}
}
