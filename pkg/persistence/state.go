package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// LinkState is the persisted link state.
type LinkState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// LastEndpoint is the endpoint of the last successful connection.
	LastEndpoint *RememberedEndpoint `json:"last_endpoint,omitempty"`
}

// RememberedEndpoint mirrors endpoint.RemoteEndpoint for JSON.
// Bond state is not stored; it is re-evaluated on every connect.
type RememberedEndpoint struct {
	Address         string    `json:"address"`
	Name            string    `json:"name,omitempty"`
	Kind            string    `json:"kind"`
	Channel         uint8     `json:"channel,omitempty"`
	ServiceInstance string    `json:"service_instance,omitempty"`
	ConnectedAt     time.Time `json:"connected_at"`
}

// Remember converts ep for storage.
func Remember(ep endpoint.RemoteEndpoint, at time.Time) *RememberedEndpoint {
	return &RememberedEndpoint{
		Address:         ep.Address,
		Name:            ep.Name,
		Kind:            ep.Kind.String(),
		Channel:         ep.Channel,
		ServiceInstance: ep.ServiceInstance,
		ConnectedAt:     at,
	}
}

// Endpoint converts the stored record back. The result is marked bonded:
// it was bonded when it last connected, and the establisher rejects it
// if the caller overrides that.
func (r *RememberedEndpoint) Endpoint() (endpoint.RemoteEndpoint, error) {
	kind, err := endpoint.ParseKind(r.Kind)
	if err != nil {
		return endpoint.RemoteEndpoint{}, err
	}
	ep := endpoint.RemoteEndpoint{
		Address:         r.Address,
		Name:            r.Name,
		Kind:            kind,
		Bond:            endpoint.BondBonded,
		Channel:         r.Channel,
		ServiceInstance: r.ServiceInstance,
	}
	return ep, ep.Validate()
}

// LinkStateStore manages persistence of link state to a JSON file.
type LinkStateStore struct {
	mu   sync.Mutex
	path string
}

// NewLinkStateStore creates a new link state store.
func NewLinkStateStore(path string) *LinkStateStore {
	return &LinkStateStore{path: path}
}

// Path returns the state file path.
func (s *LinkStateStore) Path() string {
	return s.path
}

// Save persists the state to disk. The file is replaced atomically.
func (s *LinkStateStore) Save(state *LinkState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *LinkStateStore) Load() (*LinkState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &LinkState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// RememberEndpoint records ep as the last connected endpoint.
func (s *LinkStateStore) RememberEndpoint(ep endpoint.RemoteEndpoint) error {
	now := time.Now()
	return s.Save(&LinkState{
		SavedAt:      now,
		LastEndpoint: Remember(ep, now),
	})
}

// LastEndpoint returns the remembered endpoint, or ok=false if none.
func (s *LinkStateStore) LastEndpoint() (ep endpoint.RemoteEndpoint, ok bool, err error) {
	state, err := s.Load()
	if err != nil || state == nil || state.LastEndpoint == nil {
		return endpoint.RemoteEndpoint{}, false, err
	}
	ep, err = state.LastEndpoint.Endpoint()
	if err != nil {
		return endpoint.RemoteEndpoint{}, false, err
	}
	return ep, true, nil
}

// Clear removes the state file.
func (s *LinkStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
