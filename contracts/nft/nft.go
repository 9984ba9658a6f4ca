// Package nft implements an in-process non-fungible token ledger with ERC721
// semantics, extended with the slot bookkeeping a farm needs: every token
// belongs to a slot (its artwork id) and carries the rarity label it was
// minted with.
package nft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotMinter is returned when an unapproved account tries to mint.
	ErrNotMinter = errors.New("caller is not a minter")

	// ErrNotOwner is returned for owner-only calls from another account.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrNonexistentToken is returned for queries about an unminted token id.
	ErrNonexistentToken = errors.New("nonexistent token")

	// ErrZeroAddress is returned when minting to the zero address.
	ErrZeroAddress = errors.New("mint to the zero address")
)

type tokenInfo struct {
	owner common.Address
	slot  uint64
	uri   string
	name  string
}

// NFT is an ERC721-like ledger. Token ids start at 0 and grow by one per mint.
// It is safe for concurrent use.
type NFT struct {
	address common.Address
	owner   common.Address
	name    string
	symbol  string
	baseURI string

	mu       sync.RWMutex
	minters  map[common.Address]bool
	tokens   []tokenInfo
	balances map[common.Address]uint64
	lastID   map[uint64]uint64 // slot -> most recent token id
	slotName map[uint64]string
}

// New creates an empty collection deployed at address and owned by owner.
func New(address, owner common.Address, name, symbol, baseURI string) *NFT {
	return &NFT{
		address:  address,
		owner:    owner,
		name:     name,
		symbol:   symbol,
		baseURI:  baseURI,
		minters:  make(map[common.Address]bool),
		balances: make(map[common.Address]uint64),
		lastID:   make(map[uint64]uint64),
		slotName: make(map[uint64]string),
	}
}

func (n *NFT) Address() common.Address { return n.address }
func (n *NFT) Name() string            { return n.name }
func (n *NFT) Symbol() string          { return n.symbol }
func (n *NFT) BaseURI() string         { return n.baseURI }

// ManageMinters grants or revokes the right to mint. Only the owner may call it.
func (n *NFT) ManageMinters(caller, minter common.Address, allowed bool) error {
	if caller != n.owner {
		return ErrNotOwner
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if allowed {
		n.minters[minter] = true
	} else {
		delete(n.minters, minter)
	}
	return nil
}

// IsMinter reports whether addr may mint.
func (n *NFT) IsMinter(addr common.Address) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.minters[addr]
}

// Mint creates a new token of slot for to and returns its id.
func (n *NFT) Mint(minter, to common.Address, slot uint64, uri, name string) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.minters[minter] {
		return 0, ErrNotMinter
	}
	if to == (common.Address{}) {
		return 0, ErrZeroAddress
	}
	id := uint64(len(n.tokens))
	n.tokens = append(n.tokens, tokenInfo{owner: to, slot: slot, uri: uri, name: name})
	n.balances[to]++
	n.lastID[slot] = id
	n.slotName[slot] = name
	return id, nil
}

// TotalSupply returns the number of tokens ever minted.
func (n *NFT) TotalSupply() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return uint64(len(n.tokens))
}

// BalanceOf returns how many tokens account holds.
func (n *NFT) BalanceOf(account common.Address) uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.balances[account]
}

// OwnerOf returns the holder of token id.
func (n *NFT) OwnerOf(id uint64) (common.Address, error) {
	info, err := n.token(id)
	if err != nil {
		return common.Address{}, err
	}
	return info.owner, nil
}

// TokenURI returns the metadata location of token id.
func (n *NFT) TokenURI(id uint64) (string, error) {
	info, err := n.token(id)
	if err != nil {
		return "", err
	}
	return info.uri, nil
}

// GetNftID returns the slot token id was minted for.
func (n *NFT) GetNftID(id uint64) (uint64, error) {
	info, err := n.token(id)
	if err != nil {
		return 0, err
	}
	return info.slot, nil
}

// LastTokenOf returns the most recent token id minted for slot.
func (n *NFT) LastTokenOf(slot uint64) (uint64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	id, ok := n.lastID[slot]
	return id, ok
}

// NftName returns the label slot was minted with, or "" if it never was.
func (n *NFT) NftName(slot uint64) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.slotName[slot]
}

// NftNameOfTokenID returns the label token id was minted with.
func (n *NFT) NftNameOfTokenID(id uint64) (string, error) {
	info, err := n.token(id)
	if err != nil {
		return "", err
	}
	return info.name, nil
}

func (n *NFT) token(id uint64) (tokenInfo, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if id >= uint64(len(n.tokens)) {
		return tokenInfo{}, fmt.Errorf("%w: %d", ErrNonexistentToken, id)
	}
	return n.tokens[id], nil
}
