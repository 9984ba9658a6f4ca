package nftfarm

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
)

// updateRules runs an owner-only change of the global rules. The role check
// comes first, then validation, then the commit; memory changes only after a
// successful commit.
func (e *Engine) updateRules(caller common.Address, what string, fn func(r *farm.Rules) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateRulesLocked(caller, what, fn)
}

func (e *Engine) updateRulesLocked(caller common.Address, what string, fn func(r *farm.Rules) error) error {
	if caller != e.st.Owner {
		return ErrNotOwner
	}
	rules := e.st.Rules.Copy()
	if err := fn(&rules); err != nil {
		return err
	}
	if err := rules.Validate(); err != nil {
		return err
	}
	if err := e.commit(&state.Changes{Rules: &rules}); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"caller": caller.Hex(), "rules": rules.String()}).Info("Updated " + what)
	return nil
}

// updateSlot runs a manager-tier change of one slot's overrides.
func (e *Engine) updateSlot(caller common.Address, slot uint64, what string, fn func(sl *state.Slot) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.st.IsManager(caller) {
		return ErrNotManager
	}
	sl := e.st.Slot(slot).Copy()
	if err := fn(sl); err != nil {
		return err
	}
	if err := e.commit(&state.Changes{Slots: []*state.Slot{sl}}); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"caller":     caller.Hex(),
		"slot":       slot,
		"price":      sl.Price,
		"multiplier": sl.Multiplier,
		"maxMint":    sl.MaxMint,
	}).Info("Updated slot " + what)
	return nil
}

func (e *Engine) commit(ch *state.Changes) error {
	if err := e.backend.Commit(ch); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	e.st.Apply(ch)
	return nil
}

// SetMintingInterval sets the inclusive window of mintable slots.
func (e *Engine) SetMintingInterval(caller common.Address, from, to uint64) error {
	return e.updateRules(caller, "minting interval", func(r *farm.Rules) error {
		r.MinInterval, r.MaxInterval = from, to
		return nil
	})
}

// SetMultiplier sets the global compounding ratio. Zero means flat pricing.
func (e *Engine) SetMultiplier(caller common.Address, multiplier uint64) error {
	return e.updateRules(caller, "multiplier", func(r *farm.Rules) error {
		r.Multiplier = multiplier
		return nil
	})
}

// SetMaxMintPerSlot sets the default unit cap of every slot.
func (e *Engine) SetMaxMintPerSlot(caller common.Address, limit uint64) error {
	return e.updateRules(caller, "max mint per slot", func(r *farm.Rules) error {
		r.MaxMintPerSlot = limit
		return nil
	})
}

// SetTotalSupply sets the cap on distinct claimed slots. Zero removes the cap.
func (e *Engine) SetTotalSupply(caller common.Address, supply uint64) error {
	return e.updateRules(caller, "total supply", func(r *farm.Rules) error {
		r.TotalSupply = supply
		return nil
	})
}

// SetTokenPerBurn sets the global base price.
func (e *Engine) SetTokenPerBurn(caller common.Address, price *big.Int) error {
	return e.updateRules(caller, "token per burn", func(r *farm.Rules) error {
		if price == nil || price.Sign() < 0 {
			return farm.ErrInvalidPrice
		}
		r.TokenPerBurn = new(big.Int).Set(price)
		return nil
	})
}

func (e *Engine) SetBaseURI(caller common.Address, uri string) error {
	return e.updateRules(caller, "base uri", func(r *farm.Rules) error {
		r.BaseURI = uri
		return nil
	})
}

func (e *Engine) SetContentHash(caller common.Address, hash string) error {
	return e.updateRules(caller, "content hash", func(r *farm.Rules) error {
		r.ContentHash = hash
		return nil
	})
}

func (e *Engine) SetRarity(caller common.Address, rarity string) error {
	return e.updateRules(caller, "rarity", func(r *farm.Rules) error {
		r.Rarity = rarity
		return nil
	})
}

func (e *Engine) SetAllowMultipleClaims(caller common.Address, allow bool) error {
	return e.updateRules(caller, "allow multiple claims", func(r *farm.Rules) error {
		r.AllowMultipleClaims = allow
		return nil
	})
}

// SetEndBlock closes minting once the chain passes block. Zero reopens it.
func (e *Engine) SetEndBlock(caller common.Address, block idx.Block) error {
	return e.updateRules(caller, "end block", func(r *farm.Rules) error {
		r.EndBlock = block
		return nil
	})
}

// ChangeToken switches the asset claims are paid with.
func (e *Engine) ChangeToken(caller common.Address, token PaymentToken) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.updateRulesLocked(caller, "payment token", func(r *farm.Rules) error {
		if token == nil {
			return ErrNoToken
		}
		r.PaymentToken = token.Address()
		return nil
	})
	if err != nil {
		return err
	}
	e.token = token
	return nil
}

// SetManager grants or revokes the manager tier.
func (e *Engine) SetManager(caller, manager common.Address, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.st.Owner {
		return ErrNotOwner
	}
	if manager == (common.Address{}) {
		return fmt.Errorf("manager: %w", ErrZeroAddress)
	}
	if err := e.commit(&state.Changes{Managers: map[common.Address]bool{manager: enabled}}); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"manager": manager.Hex(), "enabled": enabled}).Info("Updated minting manager")
	return nil
}

// TransferOwnership hands the owner role to newOwner.
func (e *Engine) TransferOwnership(caller, newOwner common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.st.Owner {
		return ErrNotOwner
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("new owner: %w", ErrZeroAddress)
	}
	if err := e.commit(&state.Changes{Owner: &newOwner}); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"previous": caller.Hex(), "owner": newOwner.Hex()}).Info("Transferred ownership")
	return nil
}

// SetPriceBySlot overrides the base price of slot.
func (e *Engine) SetPriceBySlot(caller common.Address, slot uint64, price *big.Int) error {
	return e.updateSlot(caller, slot, "price", func(sl *state.Slot) error {
		if price == nil || price.Sign() < 0 {
			return farm.ErrInvalidPrice
		}
		sl.Price = new(big.Int).Set(price)
		return nil
	})
}

// SetMultiplierBySlot overrides the compounding ratio of slot. Zero falls back
// to the global multiplier.
func (e *Engine) SetMultiplierBySlot(caller common.Address, slot, multiplier uint64) error {
	return e.updateSlot(caller, slot, "multiplier", func(sl *state.Slot) error {
		sl.Multiplier = multiplier
		return nil
	})
}

// SetMaxMintBySlot overrides the unit cap of slot. Zero falls back to the
// global cap.
func (e *Engine) SetMaxMintBySlot(caller common.Address, slot, limit uint64) error {
	return e.updateSlot(caller, slot, "max mint", func(sl *state.Slot) error {
		sl.MaxMint = limit
		return nil
	})
}
