package nftfarm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
)

// MintedRow is one line of an account's claim history.
type MintedRow struct {
	Slot      uint64         `json:"slot"`
	Claimed   uint64         `json:"claimed"` // units of the slot claimed by anyone
	LastOwner common.Address `json:"lastOwner"`
	MaxMint   uint64         `json:"maxMint"` // effective cap of the slot
	Price     *big.Int       `json:"price"`   // price of the next unit
	Mine      uint64         `json:"mine"`    // units held by the queried account
}

// Minted returns one row per slot account has claimed, in ascending slot order.
// Prices are evaluated after the lock is released.
func (e *Engine) Minted(account common.Address) []MintedRow {
	e.mu.RLock()
	ids := e.st.SlotsOf(account)
	rows := make([]MintedRow, 0, len(ids))
	curves := make([]curve, 0, len(ids))
	for _, id := range ids {
		sl := e.st.Slot(id)
		limit, _ := sl.EffectiveMaxMint(e.st.Rules.MaxMintPerSlot)
		rows = append(rows, MintedRow{
			Slot:      id,
			Claimed:   sl.Claimed,
			LastOwner: sl.LastOwner,
			MaxMint:   limit,
			Mine:      e.st.Claimed(account, id),
		})
		curves = append(curves, e.curveOf(sl))
	}
	e.mu.RUnlock()

	for i := range rows {
		rows[i].Price = curves[i].at(rows[i].Claimed)
	}
	return rows
}

// ClaimedAmount returns how many units of slot account holds.
func (e *Engine) ClaimedAmount(account common.Address, slot uint64) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Claimed(account, slot)
}

// SlotClaimed returns how many units of slot were claimed by anyone.
func (e *Engine) SlotClaimed(slot uint64) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Slot(slot).Claimed
}

// LastOwner returns the account of the most recent claim of slot, or the
// zero address if it was never claimed.
func (e *Engine) LastOwner(slot uint64) common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Slot(slot).LastOwner
}

// Slot returns a copy of the record of slot.
func (e *Engine) Slot(slot uint64) state.Slot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return *e.st.Slot(slot).Copy()
}

// CurrentDistributedSupply returns the number of distinct slots ever claimed.
func (e *Engine) CurrentDistributedSupply() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Distributed
}

// Rules returns a copy of the current configuration.
func (e *Engine) Rules() farm.Rules {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Rules.Copy()
}

// Owner returns the account holding the owner role.
func (e *Engine) Owner() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Owner
}

// IsManager reports whether addr may use the manager tier.
func (e *Engine) IsManager(addr common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.IsManager(addr)
}
