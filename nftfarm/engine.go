// Package nftfarm is the claim-and-pricing engine of an NFT minting farm.
//
// For a slot and a claimant the Engine decides whether a mint is allowed,
// prices it on the slot's bonding curve, collects payment through the
// PaymentToken, mints through the NFTMinter and books the claim in the ledger.
//
// Request flow of Mint:
//
//	admission -> price -> TransferFrom(account -> engine) -> NFT mint -> ledger -> commit
//
// A failure before the ledger step leaves the ledger untouched. Every write
// path holds the engine's write lock from admission to commit, so each mint
// is a single serializable transaction.
package nftfarm

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
)

// Config wires an Engine to its collaborators.
type Config struct {
	// Address is the engine's own account. Payments are collected into it and
	// it is the minter registered with the NFT collection.
	Address common.Address
	Owner   common.Address
	Rules   farm.Rules

	Token PaymentToken
	NFT   NFTMinter

	// Blocks is optional. Without it the end-block rule never fires.
	Blocks BlockSource
	// Backend is optional. Without it the ledger is kept in memory only.
	Backend state.Backend
	// Log is optional and defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// Receipt describes a successful claim.
type Receipt struct {
	Account common.Address
	Slot    uint64
	Unit    uint64 // zero-based ordinal of the unit within its slot
	TokenID uint64
	Price   *big.Int
}

// Engine is the farm itself. It is safe for concurrent use.
type Engine struct {
	address common.Address
	blocks  BlockSource
	backend state.Backend
	log     logrus.FieldLogger

	mu    sync.RWMutex
	st    *state.State
	token PaymentToken
	nft   NFTMinter
}

// New creates an engine. If the backend already holds a ledger, it is loaded
// and the configured rules and owner are ignored. Otherwise the configured
// genesis is committed.
func New(cfg Config) (*Engine, error) {
	if cfg.Token == nil {
		return nil, ErrNoToken
	}
	if cfg.NFT == nil {
		return nil, ErrNoNFT
	}
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("owner: %w", ErrZeroAddress)
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("address: %w", ErrZeroAddress)
	}
	e := &Engine{
		address: cfg.Address,
		blocks:  cfg.Blocks,
		backend: cfg.Backend,
		log:     cfg.Log,
		token:   cfg.Token,
		nft:     cfg.NFT,
	}
	if e.backend == nil {
		e.backend = state.NewMemoryBackend()
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}

	st := state.New(farm.Rules{}, common.Address{})
	found, err := e.backend.Load(st)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if found {
		if st.Rules.PaymentToken != cfg.Token.Address() {
			e.log.WithFields(logrus.Fields{
				"stored":     st.Rules.PaymentToken.Hex(),
				"configured": cfg.Token.Address().Hex(),
			}).Warn("Payment token differs from the stored ledger")
		}
		e.st = st
		e.log.WithFields(logrus.Fields{
			"owner":       st.Owner.Hex(),
			"distributed": st.Distributed,
		}).Info("Loaded farm ledger")
		return e, nil
	}

	rules := cfg.Rules.Copy()
	if rules.TokenPerBurn == nil {
		rules.TokenPerBurn = new(big.Int)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	rules.PaymentToken = cfg.Token.Address()
	e.st = state.New(rules, cfg.Owner)
	if err := e.backend.Commit(e.st.Snapshot()); err != nil {
		return nil, fmt.Errorf("%w: genesis: %w", ErrCommit, err)
	}
	e.log.WithFields(logrus.Fields{
		"rules": rules.Name,
		"owner": cfg.Owner.Hex(),
	}).Info("Initialized farm ledger")
	return e, nil
}

// Address returns the engine's own account.
func (e *Engine) Address() common.Address {
	return e.address
}

// Close releases the backend.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend.Close()
}

// Mint claims the next unit of slot for account. It is the only path that
// moves funds or mints.
//
// Token failures are returned as the token reported them. If the NFT mint
// fails after payment, the payment is refunded. If only the final commit
// fails, the mint has happened: the receipt is returned together with an
// error wrapping ErrCommit.
func (e *Engine) Mint(account common.Address, slot uint64) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.admit(slot, account); err != nil {
		return nil, err
	}
	sl := e.st.Slot(slot)
	unit := sl.Claimed
	price := e.curveOf(sl).at(unit)

	if err := e.token.TransferFrom(e.address, account, e.address, price); err != nil {
		return nil, err
	}

	rules := &e.st.Rules
	tokenID, err := e.nft.Mint(e.address, account, slot, rules.TokenURI(slot), rules.Rarity)
	if err != nil {
		if rerr := e.token.Transfer(e.address, account, price); rerr != nil {
			e.log.WithFields(logrus.Fields{
				"account": account.Hex(),
				"slot":    slot,
				"amount":  price,
				"err":     rerr,
			}).Error("Refund failed")
			return nil, fmt.Errorf("nft mint: %w (refund failed: %v)", err, rerr)
		}
		return nil, fmt.Errorf("nft mint: %w", err)
	}

	rec := &Receipt{
		Account: account,
		Slot:    slot,
		Unit:    unit,
		TokenID: tokenID,
		Price:   price,
	}
	ch := e.st.RecordClaim(slot, account)
	e.log.WithFields(logrus.Fields{
		"account": account.Hex(),
		"slot":    slot,
		"unit":    unit,
		"token":   tokenID,
		"price":   price,
	}).Info("Minted")

	if err := e.backend.Commit(ch); err != nil {
		e.log.WithFields(logrus.Fields{
			"slot": slot,
			"err":  err,
		}).Error("Failed to persist claim")
		return rec, fmt.Errorf("%w: %w", ErrCommit, err)
	}
	return rec, nil
}
