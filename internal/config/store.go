package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrInvalid is wrapped by Store.UpdateAllocation when the new settings fail validation
var ErrInvalid = errors.New("invalid configuration")

// Store holds the live configuration of a long-running process.
// Readers get copies; updates are validated, written to the config file and then swapped in.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

func NewStore(cfg *Config) *Store {
	return &Store{cfg: cloneConfig(*cfg)}
}

// Get returns a copy of the current configuration
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := cloneConfig(s.cfg)
	return &cfg
}

// UpdateAllocation replaces the allocation settings. When the configuration
// was loaded from a file the file is rewritten before the change takes effect.
func (s *Store) UpdateAllocation(allocation AllocationConfig) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneConfig(s.cfg)
	next.Allocation = allocation
	ApplyDefaults(&next)
	next = cloneConfig(next)

	if err := Validate(&next); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if next.Path != "" {
		if err := Save(next.Path, &next); err != nil {
			return nil, err
		}
	}

	s.cfg = next
	out := cloneConfig(next)
	return &out, nil
}

func cloneConfig(cfg Config) Config {
	cfg.Allocation.Departments = slices.Clone(cfg.Allocation.Departments)
	cfg.Allocation.Capacities = maps.Clone(cfg.Allocation.Capacities)
	cfg.Allocation.Quotas = slices.Clone(cfg.Allocation.Quotas)
	return cfg
}
