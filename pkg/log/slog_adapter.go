package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes link events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.LinkID != "" {
		attrs = append(attrs, slog.String("link_id", event.LinkID))
	}
	if event.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", event.Endpoint))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Attempt != nil:
		attrs = append(attrs,
			slog.Int("attempt", event.Attempt.Number),
			slog.String("strategy", event.Attempt.Strategy),
			slog.String("outcome", event.Attempt.Outcome.String()),
			slog.Duration("duration", event.Attempt.Duration),
		)
		if event.Attempt.Error != "" {
			attrs = append(attrs, slog.String("error", event.Attempt.Error))
		}
	case event.Delivery != nil:
		attrs = append(attrs,
			slog.Uint64("seq", event.Delivery.Seq),
			slog.Int("size", event.Delivery.Size),
			slog.String("outcome", event.Delivery.Outcome.String()),
			slog.Duration("queue_delay", event.Delivery.QueueDelay),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("component", event.Error.Component),
			slog.String("error", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "link event", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
