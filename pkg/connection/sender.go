package connection

import (
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/log"
)

// senderLoop drains the queue until the manager is closed.
func (m *Manager) senderLoop() {
	defer m.wg.Done()

	for {
		msg, err := m.queue.Pop(m.ctx)
		if err != nil {
			return
		}
		m.deliver(msg)
	}
}

// deliver writes msg if connected and drops it otherwise. A failed write
// drops the message and declares the link lost.
func (m *Manager) deliver(msg PendingMessage) {
	m.stateMu.RLock()
	state := m.current.State
	h := m.handle
	gen := m.stateGen
	ep := m.current.Endpoint
	m.stateMu.RUnlock()

	delay := time.Since(msg.EnqueuedAt)
	size := len(msg.Text) + 1

	if state != StateConnected || h == nil {
		m.logger.Debug("message dropped, not connected", "seq", msg.Seq, "state", state.String())
		m.logDelivery("", ep.Address, msg.Seq, size, log.DeliveryDropped, delay)
		return
	}

	if err := h.WriteLine(msg.Text); err != nil {
		m.logDelivery(h.ID(), ep.Address, msg.Seq, size, log.DeliveryFailed, delay)
		m.linkLost(gen, h, "sender", err)
		return
	}

	m.logger.Debug("message written", "seq", msg.Seq, "size", size, "link_id", h.ID())
	m.logDelivery(h.ID(), ep.Address, msg.Seq, size, log.DeliveryWritten, delay)
}

func (m *Manager) logDelivery(linkID, address string, seq uint64, size int, outcome log.DeliveryOutcome, delay time.Duration) {
	m.eventLog.Log(log.Event{
		Timestamp: time.Now(),
		LinkID:    linkID,
		Endpoint:  address,
		Category:  log.CategoryDelivery,
		Delivery: &log.DeliveryEvent{
			Seq:        seq,
			Size:       size,
			Outcome:    outcome,
			QueueDelay: delay,
		},
	})
}
