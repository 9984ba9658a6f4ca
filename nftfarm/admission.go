package nftfarm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
)

// CanClaim evaluates the admission rules for account claiming slot, without
// side effects. It returns nil or the first rule that fails. Payment is not
// part of admission: the token decides it during Mint.
func (e *Engine) CanClaim(slot uint64, account common.Address) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.admit(slot, account)
}

// admit must be called with the lock held. Rule order matters: the first
// failing rule names the rejection.
func (e *Engine) admit(slot uint64, account common.Address) error {
	r := &e.st.Rules

	if r.EndBlock != 0 && e.blocks != nil && e.blocks.BlockNumber() > r.EndBlock {
		return ErrMintingEnded
	}
	if !r.InInterval(slot) {
		return ErrOutOfInterval
	}
	sl := e.st.Slot(slot)
	if r.TotalSupply != 0 && sl.Claimed == 0 && e.st.Distributed >= r.TotalSupply {
		return ErrNothingLeft
	}
	if !r.AllowMultipleClaims && e.st.Claimed(account, slot) > 0 {
		return ErrAlreadyClaimed
	}
	limit, override := sl.EffectiveMaxMint(r.MaxMintPerSlot)
	if sl.Claimed >= limit {
		if override {
			return ErrMaxMintBySlot
		}
		return ErrMaxMint
	}
	return nil
}

// MaxUnitIndex bounds the unit ordinal Price accepts. The curve compounds
// once per unit, so evaluation time and result size grow with the index.
const MaxUnitIndex uint64 = 100_000

// Price returns the price of the unit with ordinal unitIndex of slot under the
// current configuration. It does not depend on how many units were claimed.
func (e *Engine) Price(slot, unitIndex uint64) (*big.Int, error) {
	if unitIndex > MaxUnitIndex {
		return nil, fmt.Errorf("%w: %d > %d", ErrUnitTooLarge, unitIndex, MaxUnitIndex)
	}
	e.mu.RLock()
	c := e.curveOf(e.st.Slot(slot))
	e.mu.RUnlock()
	return c.at(unitIndex), nil
}

// NextPrice returns what the next claim of slot would cost.
func (e *Engine) NextPrice(slot uint64) *big.Int {
	e.mu.RLock()
	sl := e.st.Slot(slot)
	c, unit := e.curveOf(sl), sl.Claimed
	e.mu.RUnlock()
	return c.at(unit)
}

// curve holds the resolved pricing inputs of one slot. It is detached from
// the ledger, so it can be evaluated without the engine lock.
type curve struct {
	base       *big.Int
	multiplier uint64
}

// curveOf must be called with the lock held.
func (e *Engine) curveOf(sl *state.Slot) curve {
	r := &e.st.Rules
	return curve{base: sl.BasePrice(r.TokenPerBurn), multiplier: sl.EffectiveMultiplier(r.Multiplier)}
}

func (c curve) at(unitIndex uint64) *big.Int {
	return farm.CurvePrice(c.base, c.multiplier, unitIndex)
}
