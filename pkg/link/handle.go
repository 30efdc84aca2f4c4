package link

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// Handle is one established duplex stream to a remote endpoint.
// Implemented by StreamHandle.
type Handle interface {
	// ID returns the unique handle identifier used to correlate events.
	ID() string

	// Endpoint returns the endpoint this handle is connected to.
	Endpoint() endpoint.RemoteEndpoint

	// Strategy returns the name of the strategy that opened the stream.
	Strategy() string

	// WriteLine writes text followed by '\n' in one contiguous write.
	WriteLine(text string) error

	// IsOpen reports whether the stream is still usable.
	IsOpen() bool

	// Close releases the stream. Safe to call more than once.
	Close() error
}

const readBufferSize = 1024

// StreamHandle implements Handle over an io.ReadWriteCloser.
//
// A background reader drains inbound bytes; a read error marks the
// handle closed so that liveness checks observe the loss.
type StreamHandle struct {
	id       string
	ep       endpoint.RemoteEndpoint
	strategy string
	rwc      io.ReadWriteCloser
	logger   *slog.Logger
	onData   func([]byte)

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	readDone  chan struct{}
}

// HandleOption configures a StreamHandle.
type HandleOption func(*StreamHandle)

// WithInbound registers a callback for inbound bytes. The slice is only
// valid for the duration of the call.
func WithInbound(fn func([]byte)) HandleOption {
	return func(h *StreamHandle) {
		h.onData = fn
	}
}

// WithHandleLogger sets the logger used by the reader.
func WithHandleLogger(logger *slog.Logger) HandleOption {
	return func(h *StreamHandle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewStreamHandle wraps rwc and starts the inbound reader.
func NewStreamHandle(rwc io.ReadWriteCloser, ep endpoint.RemoteEndpoint, strategy string, opts ...HandleOption) *StreamHandle {
	h := &StreamHandle{
		id:       uuid.New().String(),
		ep:       ep,
		strategy: strategy,
		rwc:      rwc,
		logger:   slog.Default(),
		readDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("link_id", h.id)

	go h.readLoop()
	return h
}

// ID returns the handle ID.
func (h *StreamHandle) ID() string { return h.id }

// Endpoint returns the remote endpoint.
func (h *StreamHandle) Endpoint() endpoint.RemoteEndpoint { return h.ep }

// Strategy returns the strategy name.
func (h *StreamHandle) Strategy() string { return h.strategy }

// IsOpen reports whether the stream has not been closed or broken.
func (h *StreamHandle) IsOpen() bool {
	return !h.closed.Load()
}

// WriteLine writes text + "\n" as a single Write call.
// Any failure marks the handle closed.
func (h *StreamHandle) WriteLine(text string) error {
	if h.closed.Load() {
		return ErrHandleClosed
	}

	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, text...)
	buf = append(buf, '\n')

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	n, err := h.rwc.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		h.closed.Store(true)
		return fmt.Errorf("%w: %w", ErrLinkLost, err)
	}
	return nil
}

// Close closes the underlying stream.
func (h *StreamHandle) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeErr = h.rwc.Close()
	})
	return h.closeErr
}

// Done is closed when the inbound reader has exited.
func (h *StreamHandle) Done() <-chan struct{} {
	return h.readDone
}

func (h *StreamHandle) readLoop() {
	defer close(h.readDone)

	buf := make([]byte, readBufferSize)
	for {
		n, err := h.rwc.Read(buf)
		if n > 0 {
			h.logger.Debug("inbound data", "bytes", n)
			if h.onData != nil {
				h.onData(buf[:n])
			}
		}
		if err != nil {
			if !h.closed.Swap(true) && !errors.Is(err, io.EOF) {
				h.logger.Debug("inbound reader stopped", "error", err)
			}
			return
		}
	}
}

var _ Handle = (*StreamHandle)(nil)
