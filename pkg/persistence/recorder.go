package persistence

import (
	"log/slog"
	"sync"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// EndpointRecorder saves remembered endpoints on a background goroutine.
// Record never blocks; when saves fall behind only the latest endpoint
// is written.
type EndpointRecorder struct {
	store  *LinkStateStore
	logger *slog.Logger

	pending chan endpoint.RemoteEndpoint
	stop    chan struct{}
	wg      sync.WaitGroup

	closeOnce sync.Once
}

// NewEndpointRecorder starts a recorder writing to store.
func NewEndpointRecorder(store *LinkStateStore, logger *slog.Logger) *EndpointRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &EndpointRecorder{
		store:   store,
		logger:  logger,
		pending: make(chan endpoint.RemoteEndpoint, 1),
		stop:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record queues ep to be saved, replacing any endpoint not yet written.
func (r *EndpointRecorder) Record(ep endpoint.RemoteEndpoint) {
	for {
		select {
		case r.pending <- ep:
			return
		default:
		}
		select {
		case <-r.pending:
		default:
		}
	}
}

// Close writes any pending endpoint and stops the recorder.
func (r *EndpointRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		r.wg.Wait()
	})
}

func (r *EndpointRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case ep := <-r.pending:
			r.save(ep)
		case <-r.stop:
			select {
			case ep := <-r.pending:
				r.save(ep)
			default:
			}
			return
		}
	}
}

func (r *EndpointRecorder) save(ep endpoint.RemoteEndpoint) {
	if err := r.store.RememberEndpoint(ep); err != nil {
		r.logger.Warn("failed to remember endpoint", "path", r.store.Path(), "error", err)
	}
}
