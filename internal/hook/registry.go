package hook

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"hookAMM/internal/amm"
)

// MaxRegistered bounds the number of approved hook programs.
const MaxRegistered = 50

// Risk levels of a registered hook program.
const (
	RiskLow    uint8 = 1
	RiskMedium uint8 = 2
	RiskHigh   uint8 = 3
)

var (
	ErrRegistryFull  = errors.New("hook registry full")
	ErrInvalidRisk   = errors.New("invalid risk level")
	ErrNotRegistered = errors.New("hook program not registered")
)

// Entry is the metadata kept for an approved hook program.
type Entry struct {
	Program     common.Address
	Name        string
	Description string
	Active      bool
	RiskLevel   uint8
	Policy      Policy
}

// Registry is the authority-owned set of approved hook programs.
type Registry struct {
	authority common.Address

	mu      sync.RWMutex
	entries map[common.Address]Entry
	version uint64
}

func NewRegistry(authority common.Address) *Registry {
	return &Registry{
		authority: authority,
		entries:   make(map[common.Address]Entry),
	}
}

// Approve adds or replaces an entry. Replacing keeps the slot, so a full
// registry still accepts updates to programs it already holds.
func (r *Registry) Approve(caller common.Address, e Entry) error {
	if caller != r.authority {
		return fmt.Errorf("%w: %s is not the registry authority", amm.ErrUnauthorized, caller.Hex())
	}
	if e.RiskLevel < RiskLow || e.RiskLevel > RiskHigh {
		return fmt.Errorf("%w: %d", ErrInvalidRisk, e.RiskLevel)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Program]; !ok && len(r.entries) >= MaxRegistered {
		return fmt.Errorf("%w: %d entries", ErrRegistryFull, len(r.entries))
	}
	r.entries[e.Program] = e
	r.version++
	return nil
}

// Revoke removes a program.
func (r *Registry) Revoke(caller, program common.Address) error {
	if caller != r.authority {
		return fmt.Errorf("%w: %s is not the registry authority", amm.ErrUnauthorized, caller.Hex())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[program]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, program.Hex())
	}
	delete(r.entries, program)
	r.version++
	return nil
}

func (r *Registry) Lookup(program common.Address) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[program]
	return e, ok
}

// Entries returns all entries ordered by program address.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Program.Cmp(out[j].Program) < 0
	})
	return out
}

// Version increases on every successful mutation.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}
