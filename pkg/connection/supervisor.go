package connection

import (
	"context"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/link"
)

// startSupervisorLocked arms the liveness watch for h. Any previous
// watch is stopped first, so there is never more than one.
func (m *Manager) startSupervisorLocked(gen uint64, h link.Handle) {
	m.stopSupervisorLocked()

	ctx, cancel := context.WithCancel(m.ctx)
	m.supCancel = cancel

	m.wg.Add(1)
	go m.supervise(ctx, gen, h)
}

func (m *Manager) stopSupervisorLocked() {
	if m.supCancel != nil {
		m.supCancel()
		m.supCancel = nil
	}
}

// supervise polls h.IsOpen until the handle closes or ctx is cancelled.
func (m *Manager) supervise(ctx context.Context, gen uint64, h link.Handle) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.SupervisorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.IsOpen() {
				continue
			}
			// Disconnect cancels ctx before closing the handle; a closed
			// handle seen here after cancellation is not a loss.
			if ctx.Err() != nil {
				return
			}
			m.linkLost(gen, h, "supervisor", link.ErrLinkLost)
			return
		}
	}
}
