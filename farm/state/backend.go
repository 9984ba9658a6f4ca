package state

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-nftfarm/farm"
)

// Changes is a set of ledger writes. Nil or empty fields are left untouched.
type Changes struct {
	Rules       *farm.Rules
	Owner       *common.Address
	Managers    map[common.Address]bool // false revokes
	Distributed *uint64
	Slots       []*Slot
	Claims      []Claim
}

// Empty reports whether the change set writes nothing.
func (ch *Changes) Empty() bool {
	return ch.Rules == nil && ch.Owner == nil && len(ch.Managers) == 0 &&
		ch.Distributed == nil && len(ch.Slots) == 0 && len(ch.Claims) == 0
}

// Backend persists the ledger.
type Backend interface {
	// Load fills s from storage. It reports false when nothing was ever committed.
	Load(s *State) (bool, error)
	// Commit writes ch atomically.
	Commit(ch *Changes) error
	Close() error
}

// MemoryBackend keeps committed change sets in process. It is used by tests
// and by deployments that do not need a data directory.
type MemoryBackend struct {
	mu     sync.Mutex
	stored *State
}

// NewMemoryBackend returns an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load implements Backend.
func (b *MemoryBackend) Load(s *State) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stored == nil {
		return false, nil
	}
	s.Apply(b.stored.Snapshot())
	return true, nil
}

// Commit implements Backend.
func (b *MemoryBackend) Commit(ch *Changes) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stored == nil {
		b.stored = New(farm.Rules{}, common.Address{})
	}
	b.stored.Apply(ch)
	return nil
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	return nil
}
