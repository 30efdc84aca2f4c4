package connection

import "sync"

// Observer receives state-change events. It runs synchronously on the
// goroutine performing the transition, so it must return promptly and
// must not call Connect, Disconnect or Close (use a goroutine for that).
type Observer func(Event)

// Notifier fans events out to registered observers in registration order.
type Notifier struct {
	mu        sync.RWMutex
	nextID    uint64
	observers []subscription
}

type subscription struct {
	id uint64
	fn Observer
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn Observer) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.observers = append(n.observers, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.observers {
		if s.id == id {
			n.observers = append(n.observers[:i:i], n.observers[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every observer registered at call time.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	observers := n.observers
	n.mu.RUnlock()

	for _, s := range observers {
		s.fn(ev)
	}
}

// Len returns the number of registered observers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}
