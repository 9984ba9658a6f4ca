// Package badgerdb persists the claim ledger in a Badger key-value store.
//
// Key layout:
//
//	rules                 -> rlp(farm.Rules)
//	owner                 -> 20-byte address
//	dist                  -> big-endian uint64 distinct-slot counter
//	m<addr>               -> manager flag (presence)
//	s<slot>               -> rlp(slotRecord)
//	c<addr><slot>         -> big-endian uint64 claimed amount
//
// Slot ids are big-endian encoded so iteration yields them in ascending order.
package badgerdb

import (
	"errors"
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
)

var (
	keyRules = []byte("rules")
	keyOwner = []byte("owner")
	keyDist  = []byte("dist")

	prefixManager = []byte("m")
	prefixSlot    = []byte("s")
	prefixClaim   = []byte("c")
)

// slotRecord is the stored form of state.Slot. rlp cannot tell a nil
// *big.Int from zero, so the presence of a price override is kept apart.
type slotRecord struct {
	ID         uint64
	Claimed    uint64
	LastOwner  common.Address
	HasPrice   bool
	Price      *big.Int
	Multiplier uint64
	MaxMint    uint64
}

// Store is a state.Backend on top of Badger.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store under dataDir/badger.
func Open(dataDir string) (*Store, error) {
	opts := badger.DefaultOptions(filepath.Join(dataDir, "badger")).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close implements state.Backend.
func (s *Store) Close() error {
	return s.db.Close()
}

// Commit implements state.Backend. The whole change set is one transaction.
func (s *Store) Commit(ch *state.Changes) error {
	if ch.Empty() {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if ch.Rules != nil {
			b, err := rlp.EncodeToBytes(ch.Rules)
			if err != nil {
				return fmt.Errorf("encode rules: %w", err)
			}
			if err := txn.Set(keyRules, b); err != nil {
				return err
			}
		}
		if ch.Owner != nil {
			if err := txn.Set(keyOwner, ch.Owner.Bytes()); err != nil {
				return err
			}
		}
		if ch.Distributed != nil {
			if err := txn.Set(keyDist, bigendian.Uint64ToBytes(*ch.Distributed)); err != nil {
				return err
			}
		}
		for addr, on := range ch.Managers {
			key := managerKey(addr)
			var err error
			if on {
				err = txn.Set(key, []byte{1})
			} else {
				err = txn.Delete(key)
			}
			if err != nil {
				return err
			}
		}
		for _, sl := range ch.Slots {
			rec := slotRecord{
				ID:         sl.ID,
				Claimed:    sl.Claimed,
				LastOwner:  sl.LastOwner,
				HasPrice:   sl.Price != nil,
				Price:      sl.Price,
				Multiplier: sl.Multiplier,
				MaxMint:    sl.MaxMint,
			}
			b, err := rlp.EncodeToBytes(&rec)
			if err != nil {
				return fmt.Errorf("encode slot %d: %w", sl.ID, err)
			}
			if err := txn.Set(slotKey(sl.ID), b); err != nil {
				return err
			}
		}
		for _, c := range ch.Claims {
			if err := txn.Set(claimKey(c.Account, c.Slot), bigendian.Uint64ToBytes(c.Amount)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load implements state.Backend.
func (s *Store) Load(st *state.State) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyRules)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		ch := &state.Changes{Managers: make(map[common.Address]bool)}
		var rules farm.Rules
		if err := item.Value(func(val []byte) error {
			return rlp.DecodeBytes(val, &rules)
		}); err != nil {
			return fmt.Errorf("decode rules: %w", err)
		}
		ch.Rules = &rules

		if v, err := getValue(txn, keyOwner); err != nil {
			return err
		} else if v != nil {
			owner := common.BytesToAddress(v)
			ch.Owner = &owner
		}
		if v, err := getValue(txn, keyDist); err != nil {
			return err
		} else if v != nil {
			dist := bigendian.BytesToUint64(v)
			ch.Distributed = &dist
		}

		err = iterate(txn, prefixManager, func(key, _ []byte) error {
			ch.Managers[common.BytesToAddress(key[len(prefixManager):])] = true
			return nil
		})
		if err != nil {
			return err
		}
		err = iterate(txn, prefixSlot, func(_, val []byte) error {
			var rec slotRecord
			if err := rlp.DecodeBytes(val, &rec); err != nil {
				return fmt.Errorf("decode slot: %w", err)
			}
			sl := &state.Slot{
				ID:         rec.ID,
				Claimed:    rec.Claimed,
				LastOwner:  rec.LastOwner,
				Multiplier: rec.Multiplier,
				MaxMint:    rec.MaxMint,
			}
			if rec.HasPrice {
				sl.Price = rec.Price
			}
			ch.Slots = append(ch.Slots, sl)
			return nil
		})
		if err != nil {
			return err
		}
		err = iterate(txn, prefixClaim, func(key, val []byte) error {
			rest := key[len(prefixClaim):]
			if len(rest) != common.AddressLength+8 {
				return fmt.Errorf("malformed claim key %x", key)
			}
			ch.Claims = append(ch.Claims, state.Claim{
				Account: common.BytesToAddress(rest[:common.AddressLength]),
				Slot:    bigendian.BytesToUint64(rest[common.AddressLength:]),
				Amount:  bigendian.BytesToUint64(val),
			})
			return nil
		})
		if err != nil {
			return err
		}

		st.Apply(ch)
		return nil
	})
	return found, err
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func iterate(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(item.KeyCopy(nil), val); err != nil {
			return err
		}
	}
	return nil
}

func managerKey(addr common.Address) []byte {
	return append(append([]byte{}, prefixManager...), addr.Bytes()...)
}

func slotKey(id uint64) []byte {
	return append(append([]byte{}, prefixSlot...), bigendian.Uint64ToBytes(id)...)
}

func claimKey(addr common.Address, slot uint64) []byte {
	key := make([]byte, 0, len(prefixClaim)+common.AddressLength+8)
	key = append(key, prefixClaim...)
	key = append(key, addr.Bytes()...)
	return append(key, bigendian.Uint64ToBytes(slot)...)
}
