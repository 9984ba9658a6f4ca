// Package state holds the claim ledger of a farm: per-slot records, per-account
// claim amounts, the distinct-slot counter and the privileged roles.
//
// State is not safe for concurrent use. The engine owning it serializes access.
// Records are created lazily on first touch and never deleted.
//
// Every mutation can be described as a Changes set so that a Backend persists
// exactly what was applied in memory.
package state

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-nftfarm/farm"
)

// State is the full in-memory ledger.
type State struct {
	Rules       farm.Rules
	Owner       common.Address
	Managers    map[common.Address]bool
	Distributed uint64

	slots    map[uint64]*Slot
	accounts map[common.Address]map[uint64]uint64
}

// New returns an empty ledger governed by rules and owned by owner.
func New(rules farm.Rules, owner common.Address) *State {
	return &State{
		Rules:    rules,
		Owner:    owner,
		Managers: make(map[common.Address]bool),
		slots:    make(map[uint64]*Slot),
		accounts: make(map[common.Address]map[uint64]uint64),
	}
}

// Slot returns the record of slot id. An untouched slot yields a fresh zero
// record that is not stored.
func (s *State) Slot(id uint64) *Slot {
	if sl, ok := s.slots[id]; ok {
		return sl
	}
	return &Slot{ID: id}
}

// HasSlot reports whether slot id has ever been touched.
func (s *State) HasSlot(id uint64) bool {
	_, ok := s.slots[id]
	return ok
}

// Claimed returns how many units of slot id account holds.
func (s *State) Claimed(account common.Address, id uint64) uint64 {
	return s.accounts[account][id]
}

// SlotsOf returns the slots account has claimed, in ascending order.
func (s *State) SlotsOf(account common.Address) []uint64 {
	claims := s.accounts[account]
	ids := make([]uint64, 0, len(claims))
	for id, amount := range claims {
		if amount > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsManager reports whether addr may use the manager tier. The owner always can.
func (s *State) IsManager(addr common.Address) bool {
	return addr == s.Owner || s.Managers[addr]
}

// RecordClaim books one unit of slot id for account and returns the changes
// to persist. The distinct-slot counter moves only on the first unit of a slot.
func (s *State) RecordClaim(id uint64, account common.Address) *Changes {
	sl := s.Slot(id).Copy()
	if sl.Claimed == 0 {
		s.Distributed++
	}
	sl.Claimed++
	sl.LastOwner = account

	amount := s.accounts[account][id] + 1
	dist := s.Distributed

	ch := &Changes{
		Distributed: &dist,
		Slots:       []*Slot{sl},
		Claims:      []Claim{{Account: account, Slot: id, Amount: amount}},
	}
	s.applySlots(ch.Slots)
	s.applyClaims(ch.Claims)
	return ch
}

// Apply writes a change set into memory.
func (s *State) Apply(ch *Changes) {
	if ch.Rules != nil {
		s.Rules = ch.Rules.Copy()
	}
	if ch.Owner != nil {
		s.Owner = *ch.Owner
	}
	for addr, on := range ch.Managers {
		if on {
			s.Managers[addr] = true
		} else {
			delete(s.Managers, addr)
		}
	}
	if ch.Distributed != nil {
		s.Distributed = *ch.Distributed
	}
	s.applySlots(ch.Slots)
	s.applyClaims(ch.Claims)
}

func (s *State) applySlots(slots []*Slot) {
	for _, sl := range slots {
		s.slots[sl.ID] = sl.Copy()
	}
}

func (s *State) applyClaims(claims []Claim) {
	for _, c := range claims {
		m := s.accounts[c.Account]
		if m == nil {
			m = make(map[uint64]uint64)
			s.accounts[c.Account] = m
		}
		m[c.Slot] = c.Amount
	}
}

// Snapshot describes the whole ledger as a single change set.
func (s *State) Snapshot() *Changes {
	rules := s.Rules.Copy()
	owner := s.Owner
	dist := s.Distributed
	ch := &Changes{
		Rules:       &rules,
		Owner:       &owner,
		Managers:    make(map[common.Address]bool, len(s.Managers)),
		Distributed: &dist,
	}
	for addr := range s.Managers {
		ch.Managers[addr] = true
	}
	ids := make([]uint64, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		ch.Slots = append(ch.Slots, s.slots[id].Copy())
	}
	for addr, claims := range s.accounts {
		for id, amount := range claims {
			ch.Claims = append(ch.Claims, Claim{Account: addr, Slot: id, Amount: amount})
		}
	}
	return ch
}
