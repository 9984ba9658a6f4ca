package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Slot is the per-slot record of the claim ledger. The zero value of every
// override field means "absent": the global rule applies.
type Slot struct {
	ID        uint64
	Claimed   uint64         // units ever claimed, never decreases
	LastOwner common.Address // account of the most recent successful claim

	Price      *big.Int // base price override, nil when absent
	Multiplier uint64   // compounding override, 0 when absent
	MaxMint    uint64   // unit cap override, 0 when absent
}

// EffectiveMaxMint returns the unit cap of the slot and whether it comes
// from the slot's own override.
func (s *Slot) EffectiveMaxMint(global uint64) (uint64, bool) {
	if s.MaxMint != 0 {
		return s.MaxMint, true
	}
	return global, false
}

// EffectiveMultiplier returns the slot override if set, else global.
func (s *Slot) EffectiveMultiplier(global uint64) uint64 {
	if s.Multiplier != 0 {
		return s.Multiplier
	}
	return global
}

// BasePrice returns the slot price override if set, else global.
// The result is never shared with the slot.
func (s *Slot) BasePrice(global *big.Int) *big.Int {
	if s.Price != nil {
		return new(big.Int).Set(s.Price)
	}
	if global == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(global)
}

// Copy returns a deep copy of the slot.
func (s *Slot) Copy() *Slot {
	cp := *s
	if s.Price != nil {
		cp.Price = new(big.Int).Set(s.Price)
	}
	return &cp
}

// Claim is the amount an account holds of one slot.
type Claim struct {
	Account common.Address
	Slot    uint64
	Amount  uint64
}
