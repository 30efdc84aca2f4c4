package connection

import (
	"fmt"
	"strings"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// State is the link lifecycle state.
type State uint8

const (
	// StateDisconnected indicates no link. Initial and terminal-safe.
	StateDisconnected State = iota

	// StateConnecting indicates an establishment sequence is in flight.
	StateConnecting

	// StateConnected indicates a live link handle.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// ReconnectPolicy controls what happens after a link is lost.
type ReconnectPolicy uint8

const (
	// ReconnectOnce issues one fresh connect request per lost link.
	ReconnectOnce ReconnectPolicy = iota

	// ReconnectOff only transitions to Disconnected.
	ReconnectOff
)

// String returns the policy name.
func (p ReconnectPolicy) String() string {
	switch p {
	case ReconnectOnce:
		return "once"
	case ReconnectOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParseReconnectPolicy parses "once" or "off". Empty means once.
func ParseReconnectPolicy(s string) (ReconnectPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "once", "on":
		return ReconnectOnce, nil
	case "off", "none", "manual":
		return ReconnectOff, nil
	default:
		return 0, fmt.Errorf("invalid reconnect policy %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ReconnectPolicy) UnmarshalText(text []byte) error {
	v, err := ParseReconnectPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p ReconnectPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Event is published for every state transition.
type Event struct {
	// State is the new state.
	State State

	// Previous is the state before the transition.
	Previous State

	// Reason explains the transition.
	Reason Reason

	// Status is the human-readable summary for a status surface.
	Status Status

	// Endpoint is the endpoint the transition concerns.
	Endpoint endpoint.RemoteEndpoint

	// LinkID identifies the handle involved, if any.
	LinkID string

	// Err is the underlying error for failure transitions.
	Err error

	// At is when the transition happened.
	At time.Time
}

// String returns a compact description for logs and consoles.
func (e Event) String() string {
	return fmt.Sprintf("%s -> %s (%s): %s", e.Previous, e.State, e.Reason, e.Status)
}
