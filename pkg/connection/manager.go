package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
	"github.com/glassbridge/glassbridge-go/pkg/link"
	"github.com/glassbridge/glassbridge-go/pkg/log"
)

// Manager errors.
var (
	ErrClosed     = errors.New("connection manager closed")
	ErrSuperseded = errors.New("connect request superseded")
)

// DefaultSupervisorInterval is the liveness polling interval.
const DefaultSupervisorInterval = time.Second

// Establisher produces a live handle for an endpoint.
// Implemented by *link.Establisher.
type Establisher interface {
	Establish(ctx context.Context, ep endpoint.RemoteEndpoint) (link.Handle, error)
}

// Config configures a Manager.
type Config struct {
	// SupervisorInterval is how often a connected handle is checked
	// (default: 1s).
	SupervisorInterval time.Duration

	// Reconnect selects the policy applied after a lost link.
	Reconnect ReconnectPolicy

	// Greeting, if set, is enqueued after every successful connect.
	Greeting string

	// Logger is used for operational logging (default: slog.Default()).
	Logger *slog.Logger

	// EventLog receives STATE, DELIVERY and ERROR events.
	EventLog log.Logger
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		SupervisorInterval: DefaultSupervisorInterval,
		Reconnect:          ReconnectOnce,
	}
}

type reconnectRequest struct {
	gen uint64
	ep  endpoint.RemoteEndpoint
}

// Manager owns the connection state machine, the supervisor, the
// delivery queue and its sender loop.
type Manager struct {
	config      Config
	establisher Establisher
	logger      *slog.Logger
	eventLog    log.Logger
	notifier    *Notifier
	queue       *Queue

	// transMu serializes transitions and guards the fields below it.
	transMu       sync.Mutex
	gen           uint64
	closed        bool
	attemptCancel context.CancelFunc
	attemptDone   chan struct{}
	supCancel     context.CancelFunc

	// stateMu guards the snapshot read by State and the sender loop.
	// Written only while transMu is held.
	stateMu  sync.RWMutex
	current  Event
	handle   link.Handle
	stateGen uint64

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	reconnectCh chan reconnectRequest
}

// NewManager creates a Manager and starts its sender and reconnect loops.
// Close must be called to release them.
func NewManager(establisher Establisher, config Config) *Manager {
	if config.SupervisorInterval <= 0 {
		config.SupervisorInterval = DefaultSupervisorInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:      config,
		establisher: establisher,
		logger:      logger,
		eventLog:    log.OrNoop(config.EventLog),
		notifier:    NewNotifier(),
		queue:       NewQueue(),
		ctx:         ctx,
		cancel:      cancel,
		reconnectCh: make(chan reconnectRequest, 1),
	}
	m.current = Event{
		State:  StateDisconnected,
		Status: StatusFor(StateDisconnected, ReasonNone, endpoint.RemoteEndpoint{}),
		At:     time.Now(),
	}

	m.wg.Add(2)
	go m.senderLoop()
	go m.reconnectLoop()

	return m
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current.State
}

// Status returns the current status summary.
func (m *Manager) Status() Status {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current.Status
}

// Current returns the most recent transition event.
func (m *Manager) Current() Event {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current
}

// Handle returns the live handle, or nil when not connected.
func (m *Manager) Handle() link.Handle {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.handle
}

// Subscribe registers an observer for state changes.
func (m *Manager) Subscribe(fn Observer) (unsubscribe func()) {
	return m.notifier.Subscribe(fn)
}

// Enqueue queues text for delivery. It never blocks and never fails;
// the message is dropped later if no link is present when it is popped.
func (m *Manager) Enqueue(text string) {
	msg := m.queue.Push(text)
	m.logger.Debug("message enqueued", "seq", msg.Seq, "size", len(text))
}

// QueueLen returns the number of messages waiting for the sender loop.
func (m *Manager) QueueLen() int {
	return m.queue.Len()
}

// Connect requests a link to ep and returns once the request is accepted.
// The outcome is reported through state-change events.
//
// An unbonded endpoint moves the manager to Disconnected with reason
// NotPaired and returns link.ErrNotPaired without any attempt.
func (m *Manager) Connect(ep endpoint.RemoteEndpoint) error {
	_, err := m.connect(ep, ReasonConnectRequested, 0)
	return err
}

// ConnectWait is Connect followed by waiting for the attempt to finish.
// It returns nil once Connected, the establishment error otherwise, or
// ErrSuperseded if a newer request replaced this one. Cancelling ctx only
// stops the wait.
func (m *Manager) ConnectWait(ctx context.Context, ep endpoint.RemoteEndpoint) error {
	result, err := m.connect(ep, ReasonConnectRequested, 0)
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connect performs the Disconnected -> Connecting transition. A non-zero
// onlyGen makes the request conditional on no newer request having
// arrived since that generation.
func (m *Manager) connect(ep endpoint.RemoteEndpoint, reason Reason, onlyGen uint64) (<-chan error, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}

	m.transMu.Lock()
	defer m.transMu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if onlyGen != 0 && onlyGen != m.gen {
		return nil, ErrSuperseded
	}

	m.gen++
	gen := m.gen
	prevDone := m.attemptDone
	prev := m.releaseLocked()

	// NotPaired is published even from Disconnected so the user sees
	// the status; it replaces the Superseded event when tearing down.
	if !ep.IsBonded() {
		m.logger.Warn("endpoint not paired", "endpoint", ep.Address, "bond", ep.Bond.String())
		m.transitionLocked(StateDisconnected, ReasonNotPaired, ep, nil, link.ErrNotPaired)
		return nil, link.ErrNotPaired
	}
	if prev.State != StateDisconnected {
		m.transitionLocked(StateDisconnected, ReasonSuperseded, prev.Endpoint, nil, nil)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	done := make(chan struct{})
	result := make(chan error, 1)
	m.attemptCancel = cancel
	m.attemptDone = done

	m.transitionLocked(StateConnecting, reason, ep, nil, nil)

	m.wg.Add(1)
	go m.runAttempt(ctx, cancel, gen, ep, prevDone, done, result)

	return result, nil
}

// runAttempt runs one establishment sequence. It waits for the previous
// sequence to exit so at most one is ever in flight.
func (m *Manager) runAttempt(ctx context.Context, cancel context.CancelFunc, gen uint64, ep endpoint.RemoteEndpoint, prevDone <-chan struct{}, done chan struct{}, result chan<- error) {
	defer m.wg.Done()
	defer close(done)
	defer cancel()

	if prevDone != nil {
		select {
		case <-prevDone:
		case <-ctx.Done():
			result <- ErrSuperseded
			// done must not close before the predecessor has exited.
			<-prevDone
			return
		}
	}

	h, err := m.establisher.Establish(ctx, ep)

	m.transMu.Lock()
	defer m.transMu.Unlock()

	if gen != m.gen || m.closed {
		if h != nil {
			h.Close()
		}
		m.logger.Debug("discarding stale attempt", "endpoint", ep.Address)
		result <- ErrSuperseded
		return
	}
	m.attemptCancel = nil

	if err != nil {
		m.logger.Warn("connect failed", "endpoint", ep.Address, "error", err)
		m.transitionLocked(StateDisconnected, reasonFor(err), ep, nil, err)
		result <- err
		return
	}

	m.transitionLocked(StateConnected, ReasonEstablished, ep, h, nil)
	m.startSupervisorLocked(gen, h)

	if m.config.Greeting != "" {
		m.queue.Push(m.config.Greeting)
	}
	result <- nil
}

// Disconnect tears down the link and stops supervision. Pending
// reconnects are discarded.
func (m *Manager) Disconnect() {
	m.transMu.Lock()
	defer m.transMu.Unlock()

	if m.closed {
		return
	}
	m.gen++
	m.teardownLocked(ReasonDisconnectRequested)
}

// Close shuts the manager down: any attempt is cancelled, the link is
// closed and all goroutines have exited when Close returns.
func (m *Manager) Close() error {
	m.transMu.Lock()
	if m.closed {
		m.transMu.Unlock()
		return nil
	}
	m.closed = true
	m.gen++

	m.teardownLocked(ReasonShutdown)
	m.transMu.Unlock()

	m.cancel()
	m.wg.Wait()
	return nil
}

// teardownLocked releases the current handle, stops the supervisor and
// cancels any in-flight attempt, publishing Disconnected if the manager
// was not already there.
func (m *Manager) teardownLocked(reason Reason) {
	prev := m.releaseLocked()
	if prev.State != StateDisconnected {
		m.transitionLocked(StateDisconnected, reason, prev.Endpoint, nil, nil)
	}
}

// releaseLocked stops the supervisor, cancels any in-flight attempt and
// closes the handle without publishing. It returns the event current
// before the release.
func (m *Manager) releaseLocked() Event {
	m.stopSupervisorLocked()
	if m.attemptCancel != nil {
		m.attemptCancel()
		m.attemptCancel = nil
	}
	prev := m.snapshot()
	m.closeHandleLocked()
	return prev
}

func (m *Manager) closeHandleLocked() {
	m.stateMu.RLock()
	h := m.handle
	m.stateMu.RUnlock()
	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		m.logger.Debug("close handle", "link_id", h.ID(), "error", err)
	}
}

// linkLost handles a loss detected by the supervisor or the sender loop.
// Reports for a handle that is no longer current are ignored.
func (m *Manager) linkLost(gen uint64, h link.Handle, component string, cause error) {
	m.transMu.Lock()
	defer m.transMu.Unlock()

	if m.closed || gen != m.gen || m.Handle() != h {
		return
	}

	ep := h.Endpoint()
	m.logger.Warn("link lost", "endpoint", ep.Address, "link_id", h.ID(), "component", component, "error", cause)
	m.logError(h.ID(), ep, component, cause)

	m.stopSupervisorLocked()
	m.closeHandleLocked()
	m.transitionLocked(StateDisconnected, ReasonLinkLost, ep, h, cause)

	if m.config.Reconnect == ReconnectOnce {
		m.scheduleReconnectLocked(ep)
	}
}

// scheduleReconnectLocked queues one reconnect for the current
// generation, replacing any request still pending.
func (m *Manager) scheduleReconnectLocked(ep endpoint.RemoteEndpoint) {
	req := reconnectRequest{gen: m.gen, ep: ep}
	select {
	case <-m.reconnectCh:
	default:
	}
	m.reconnectCh <- req
}

// reconnectLoop runs scheduled reconnects one at a time. Each is a
// fresh connect request subject to the same single-flight rules as an
// external one.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case req := <-m.reconnectCh:
			m.logger.Info("reconnecting", "endpoint", req.ep.Address)
			if _, err := m.connect(req.ep, ReasonReconnect, req.gen); err != nil {
				m.logger.Debug("reconnect skipped", "endpoint", req.ep.Address, "error", err)
			}
		}
	}
}

// transitionLocked sets the new state, publishes it and records it.
// Caller holds transMu. A nil handle clears the current handle unless
// the new state is Connected.
func (m *Manager) transitionLocked(state State, reason Reason, ep endpoint.RemoteEndpoint, h link.Handle, err error) {
	m.stateMu.Lock()
	prev := m.current
	ev := Event{
		State:    state,
		Previous: prev.State,
		Reason:   reason,
		Status:   StatusFor(state, reason, ep),
		Endpoint: ep,
		Err:      err,
		At:       time.Now(),
	}
	if h != nil {
		ev.LinkID = h.ID()
	}
	m.current = ev
	if state == StateConnected {
		m.handle = h
	} else {
		m.handle = nil
	}
	m.stateGen = m.gen
	m.stateMu.Unlock()

	m.logger.Info("connection state changed",
		"old_state", prev.State.String(),
		"new_state", state.String(),
		"reason", reason.String(),
		"endpoint", ep.Address)

	m.eventLog.Log(log.Event{
		Timestamp: ev.At,
		LinkID:    ev.LinkID,
		Endpoint:  ep.Address,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: prev.State.String(),
			NewState: state.String(),
			Reason:   reason.String(),
		},
	})

	m.notifier.Publish(ev)
}

// snapshot returns the current event under the read lock.
func (m *Manager) snapshot() Event {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current
}

func (m *Manager) logError(linkID string, ep endpoint.RemoteEndpoint, component string, err error) {
	if err == nil {
		return
	}
	m.eventLog.Log(log.Event{
		Timestamp: time.Now(),
		LinkID:    linkID,
		Endpoint:  ep.Address,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Component: component,
			Message:   err.Error(),
		},
	})
}
