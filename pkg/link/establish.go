package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
	"github.com/glassbridge/glassbridge-go/pkg/log"
)

// Establisher defaults.
const (
	DefaultAttempts       = 3
	DefaultConnectTimeout = 10 * time.Second
)

// Config configures an Establisher.
type Config struct {
	// Attempts is the total attempt budget (default: 3).
	Attempts int

	// Backoff is the wait between failed attempts (default: fixed 2s).
	Backoff BackoffConfig

	// ConnectTimeout bounds a single strategy Open (default: 10s).
	ConnectTimeout time.Duration

	// SettleDelay is waited once before the first attempt, giving the
	// remote side time to release a previous link.
	SettleDelay time.Duration

	// StrategyNames selects built-in strategies by name. Empty uses the
	// default order for the endpoint kind.
	StrategyNames []string

	// Strategies replaces the built-in strategies entirely.
	Strategies []Strategy

	// StrategyConfig is passed to built-in strategies.
	StrategyConfig StrategyConfig

	// Inbound receives bytes read from established handles.
	Inbound func(ep endpoint.RemoteEndpoint, data []byte)

	// Logger is used for operational logging (default: slog.Default()).
	Logger *slog.Logger

	// EventLog receives ATTEMPT events.
	EventLog log.Logger
}

// DefaultConfig returns the default establisher configuration.
func DefaultConfig() Config {
	return Config{
		Attempts:       DefaultAttempts,
		Backoff:        DefaultBackoffConfig(),
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Establisher turns a RemoteEndpoint into a live Handle.
// It holds no per-call state and is safe for concurrent use; callers are
// responsible for single-flight.
type Establisher struct {
	config   Config
	logger   *slog.Logger
	eventLog log.Logger
}

// NewEstablisher creates an Establisher, filling unset fields with defaults.
func NewEstablisher(config Config) *Establisher {
	if config.Attempts <= 0 {
		config.Attempts = DefaultAttempts
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Establisher{
		config:   config,
		logger:   logger,
		eventLog: log.OrNoop(config.EventLog),
	}
}

// Attempts returns the configured attempt budget.
func (e *Establisher) Attempts() int {
	return e.config.Attempts
}

// Establish opens a link to ep.
//
// Attempt i uses strategy (i-1) mod len(strategies). An unbonded endpoint
// fails with ErrNotPaired before any attempt. A permission failure aborts
// with ErrPermissionDenied. Cancelling ctx aborts with ctx.Err().
func (e *Establisher) Establish(ctx context.Context, ep endpoint.RemoteEndpoint) (Handle, error) {
	if !ep.IsBonded() {
		return nil, fmt.Errorf("%w: %s", ErrNotPaired, ep.DisplayName())
	}

	strategies, err := e.strategiesFor(ep)
	if err != nil {
		return nil, err
	}

	if e.config.SettleDelay > 0 {
		if err := sleepCtx(ctx, e.config.SettleDelay); err != nil {
			return nil, err
		}
	}

	backoff := NewBackoff(e.config.Backoff)
	var lastErr error

	for attempt := 1; attempt <= e.config.Attempts; attempt++ {
		strategy := strategies[(attempt-1)%len(strategies)]

		e.logger.Info("opening channel",
			"endpoint", ep.Address,
			"attempt", attempt,
			"strategy", strategy.Name())

		start := time.Now()
		h, err := e.open(ctx, strategy, ep)
		elapsed := time.Since(start)

		if err == nil {
			e.logAttempt(ep, h.ID(), attempt, strategy.Name(), log.AttemptSucceeded, nil, elapsed)
			e.logger.Info("channel open",
				"endpoint", ep.Address,
				"attempt", attempt,
				"strategy", strategy.Name(),
				"link_id", h.ID())
			return h, nil
		}

		attemptErr := &AttemptError{Attempt: attempt, Strategy: strategy.Name(), Err: err}

		if ctx.Err() != nil {
			e.logAttempt(ep, "", attempt, strategy.Name(), log.AttemptAborted, ctx.Err(), elapsed)
			return nil, ctx.Err()
		}

		if IsPermission(err) {
			e.logAttempt(ep, "", attempt, strategy.Name(), log.AttemptAborted, err, elapsed)
			e.logger.Warn("permission denied, aborting",
				"endpoint", ep.Address,
				"strategy", strategy.Name(),
				"error", err)
			return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, attemptErr)
		}

		e.logAttempt(ep, "", attempt, strategy.Name(), log.AttemptFailed, err, elapsed)
		e.logger.Warn("channel open failed",
			"endpoint", ep.Address,
			"attempt", attempt,
			"strategy", strategy.Name(),
			"error", err)
		lastErr = attemptErr

		if attempt < e.config.Attempts {
			if err := sleepCtx(ctx, backoff.Next()); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrAllAttemptsExhausted, e.config.Attempts, lastErr)
}

func (e *Establisher) strategiesFor(ep endpoint.RemoteEndpoint) ([]Strategy, error) {
	if len(e.config.Strategies) > 0 {
		return e.config.Strategies, nil
	}
	return StrategiesFor(ep, e.config.StrategyNames, e.config.StrategyConfig)
}

// open runs a single strategy with the per-attempt timeout and wraps the
// resulting stream.
func (e *Establisher) open(ctx context.Context, s Strategy, ep endpoint.RemoteEndpoint) (Handle, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.config.ConnectTimeout)
	defer cancel()

	rwc, err := s.Open(attemptCtx, ep)
	if err != nil {
		if rwc != nil {
			rwc.Close()
		}
		return nil, err
	}
	if rwc == nil {
		return nil, errors.New("strategy returned no stream")
	}

	opts := []HandleOption{WithHandleLogger(e.logger)}
	if e.config.Inbound != nil {
		inbound := e.config.Inbound
		opts = append(opts, WithInbound(func(data []byte) { inbound(ep, data) }))
	}
	return NewStreamHandle(rwc, ep, s.Name(), opts...), nil
}

func (e *Establisher) logAttempt(ep endpoint.RemoteEndpoint, linkID string, n int, strategy string, outcome log.AttemptOutcome, err error, d time.Duration) {
	ev := &log.AttemptEvent{
		Number:   n,
		Strategy: strategy,
		Outcome:  outcome,
		Duration: d,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	e.eventLog.Log(log.Event{
		Timestamp: time.Now(),
		LinkID:    linkID,
		Endpoint:  ep.Address,
		Category:  log.CategoryAttempt,
		Attempt:   ev,
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
