package params

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"launchpad/crypto"
	"launchpad/storage"
)

const (
	pausesKey          = "params/pauses"
	capabilitiesPrefix = "params/caps/"
)

var errNilRegistry = errors.New("params: registry not configured")

// Registry is the store-backed source of module pause toggles and caller
// capability grants. It implements both common.PauseView and
// common.CapabilityView so one instance can back every engine.
type Registry struct {
	mu sync.RWMutex
	db storage.Database
}

// NewRegistry binds a registry to the database.
func NewRegistry(db storage.Database) *Registry {
	return &Registry{db: db}
}

func (r *Registry) loadPauses() (map[string]bool, error) {
	raw, err := r.db.Get([]byte(pausesKey))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("params: load pauses: %w", err)
	}
	pauses := map[string]bool{}
	if err := json.Unmarshal(raw, &pauses); err != nil {
		return nil, fmt.Errorf("params: decode pauses: %w", err)
	}
	return pauses, nil
}

// IsPaused reports whether the named module is paused. Unknown modules and a
// missing pause record read as not paused.
func (r *Registry) IsPaused(module string) bool {
	if r == nil || r.db == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pauses, err := r.loadPauses()
	if err != nil {
		// An unreadable pause record fails closed.
		return true
	}
	return pauses[module]
}

// SetPaused toggles the pause flag for the named module.
func (r *Registry) SetPaused(module string, paused bool) error {
	if r == nil || r.db == nil {
		return errNilRegistry
	}
	if module == "" {
		return fmt.Errorf("params: empty module name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pauses, err := r.loadPauses()
	if err != nil {
		return err
	}
	if paused {
		pauses[module] = true
	} else {
		delete(pauses, module)
	}
	encoded, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("params: encode pauses: %w", err)
	}
	return r.db.Put([]byte(pausesKey), encoded)
}

func capabilityKey(caller crypto.Address) []byte {
	return []byte(capabilitiesPrefix + hex.EncodeToString(caller.Bytes()))
}

func (r *Registry) loadCapabilities(caller crypto.Address) (map[string]bool, error) {
	raw, err := r.db.Get(capabilityKey(caller))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("params: load capabilities: %w", err)
	}
	caps := map[string]bool{}
	if err := json.Unmarshal(raw, &caps); err != nil {
		return nil, fmt.Errorf("params: decode capabilities: %w", err)
	}
	return caps, nil
}

// HasCapability reports whether the caller holds the named capability. Errors
// read as a denial.
func (r *Registry) HasCapability(caller crypto.Address, capability string) bool {
	if r == nil || r.db == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, err := r.loadCapabilities(caller)
	if err != nil {
		return false
	}
	return caps[capability]
}

// Grant adds a capability to the caller's grant set.
func (r *Registry) Grant(caller crypto.Address, capability string) error {
	if r == nil || r.db == nil {
		return errNilRegistry
	}
	if capability == "" {
		return fmt.Errorf("params: empty capability")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	caps, err := r.loadCapabilities(caller)
	if err != nil {
		return err
	}
	caps[capability] = true
	encoded, err := json.Marshal(caps)
	if err != nil {
		return fmt.Errorf("params: encode capabilities: %w", err)
	}
	return r.db.Put(capabilityKey(caller), encoded)
}

// Revoke removes a capability from the caller's grant set.
func (r *Registry) Revoke(caller crypto.Address, capability string) error {
	if r == nil || r.db == nil {
		return errNilRegistry
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	caps, err := r.loadCapabilities(caller)
	if err != nil {
		return err
	}
	delete(caps, capability)
	encoded, err := json.Marshal(caps)
	if err != nil {
		return fmt.Errorf("params: encode capabilities: %w", err)
	}
	return r.db.Put(capabilityKey(caller), encoded)
}
