package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
	"github.com/glassbridge/glassbridge-go/pkg/link"
)

func glasses() endpoint.RemoteEndpoint {
	return endpoint.RemoteEndpoint{
		Address: "AA:BB:CC:DD:EE:FF",
		Name:    "ESP32_Glasses",
		Kind:    endpoint.KindRFCOMM,
		Bond:    endpoint.BondBonded,
	}
}

// fakeHandle is an in-memory link.Handle that records written lines.
type fakeHandle struct {
	id       string
	ep       endpoint.RemoteEndpoint
	open     atomic.Bool
	closes   atomic.Int32
	writeErr atomic.Value

	mu    sync.Mutex
	lines []string
}

var handleSeq atomic.Int32

func newFakeHandle(ep endpoint.RemoteEndpoint) *fakeHandle {
	h := &fakeHandle{
		id: fmt.Sprintf("fake-%d", handleSeq.Add(1)),
		ep: ep,
	}
	h.open.Store(true)
	return h
}

func (h *fakeHandle) ID() string                        { return h.id }
func (h *fakeHandle) Endpoint() endpoint.RemoteEndpoint { return h.ep }
func (h *fakeHandle) Strategy() string                  { return "fake" }
func (h *fakeHandle) IsOpen() bool                      { return h.open.Load() }

func (h *fakeHandle) WriteLine(text string) error {
	if !h.open.Load() {
		return link.ErrHandleClosed
	}
	if err, ok := h.writeErr.Load().(error); ok && err != nil {
		h.open.Store(false)
		return err
	}
	h.mu.Lock()
	h.lines = append(h.lines, text+"\n")
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Close() error {
	h.closes.Add(1)
	h.open.Store(false)
	return nil
}

func (h *fakeHandle) failWrites(err error) { h.writeErr.Store(err) }

func (h *fakeHandle) written() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

// fakeEstablisher hands out fake handles, or whatever fn returns.
type fakeEstablisher struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu      sync.Mutex
	eps     []endpoint.RemoteEndpoint
	handles []*fakeHandle

	fn func(ctx context.Context, call int, ep endpoint.RemoteEndpoint) (link.Handle, error)
}

func (f *fakeEstablisher) Establish(ctx context.Context, ep endpoint.RemoteEndpoint) (link.Handle, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	call := int(f.calls.Add(1))
	f.mu.Lock()
	f.eps = append(f.eps, ep)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, call, ep)
	}
	return f.newHandle(ep), nil
}

func (f *fakeEstablisher) newHandle(ep endpoint.RemoteEndpoint) *fakeHandle {
	h := newFakeHandle(ep)
	f.mu.Lock()
	f.handles = append(f.handles, h)
	f.mu.Unlock()
	return h
}

func (f *fakeEstablisher) handle(i int) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.handles) {
		return nil
	}
	return f.handles[i]
}

func (f *fakeEstablisher) endpoints() []endpoint.RemoteEndpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]endpoint.RemoteEndpoint(nil), f.eps...)
}

// eventLog collects published events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) states() []State {
	var out []State
	for _, ev := range l.all() {
		out = append(out, ev.State)
	}
	return out
}

func (l *eventLog) has(state State, reason Reason) bool {
	for _, ev := range l.all() {
		if ev.State == state && ev.Reason == reason {
			return true
		}
	}
	return false
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SupervisorInterval = 10 * time.Millisecond
	return cfg
}

func newTestManager(t *testing.T, est Establisher, cfg Config) (*Manager, *eventLog) {
	t.Helper()
	m := NewManager(est, cfg)
	events := &eventLog{}
	m.Subscribe(events.observe)
	t.Cleanup(func() { m.Close() })
	return m, events
}

var errRefused = errors.New("connection refused")
