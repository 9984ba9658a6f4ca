// Package token implements an in-process fungible token ledger with BEP20
// semantics. It is the payment collaborator of a farm when no chain is
// attached: balances, allowances and an owner-gated mint.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Decimals is the number of fractional digits of every amount.
const Decimals = 18

var (
	// ErrExceedsBalance is returned when the payer cannot cover the amount.
	ErrExceedsBalance = errors.New("transfer amount exceeds balance")

	// ErrExceedsAllowance is returned when the spender was not approved for the amount.
	ErrExceedsAllowance = errors.New("transfer amount exceeds allowance")

	// ErrNotOwner is returned for owner-only calls from another account.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrZeroAddress is returned for transfers from or to the zero address.
	ErrZeroAddress = errors.New("zero address")

	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = errors.New("negative amount")
)

// Token is a BEP20-like ledger. It is safe for concurrent use.
type Token struct {
	address common.Address
	owner   common.Address
	name    string
	symbol  string

	mu         sync.RWMutex
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// New creates an empty token deployed at address and owned by owner.
func New(address, owner common.Address, name, symbol string) *Token {
	return &Token{
		address:    address,
		owner:      owner,
		name:       name,
		symbol:     symbol,
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Owner() common.Address   { return t.owner }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }
func (t *Token) Decimals() uint8         { return Decimals }

// TotalSupply returns the amount ever minted.
func (t *Token) TotalSupply() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.supply)
}

// BalanceOf returns the balance of account.
func (t *Token) BalanceOf(account common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balanceOf(account)
}

// Allowance returns how much spender may still move out of holder.
func (t *Token) Allowance(holder, spender common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if a := t.allowances[holder][spender]; a != nil {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

// Mint creates amount for to. Only the owner may mint.
func (t *Token) Mint(caller, to common.Address, amount *big.Int) error {
	if caller != t.owner {
		return ErrNotOwner
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("mint to the %w", ErrZeroAddress)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.supply.Add(t.supply, amount)
	t.credit(to, amount)
	return nil
}

// Approve sets the amount spender may move out of holder.
func (t *Token) Approve(holder, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.allowances[holder]
	if m == nil {
		m = make(map[common.Address]*big.Int)
		t.allowances[holder] = m
	}
	m[spender] = new(big.Int).Set(amount)
	return nil
}

// Transfer moves amount from from to to.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount)
}

// TransferFrom moves amount from from to to on behalf of spender. The balance
// is checked before the allowance, so an unfunded payer always reports
// ErrExceedsBalance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.balanceOf(from).Cmp(amount) < 0 {
		return ErrExceedsBalance
	}
	allowed := t.allowances[from][spender]
	if allowed == nil {
		allowed = new(big.Int)
	}
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %w", ErrExceedsBalance, ErrExceedsAllowance)
	}
	if err := t.transfer(from, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

func (t *Token) transfer(from, to common.Address, amount *big.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return fmt.Errorf("transfer with the %w", ErrZeroAddress)
	}
	if t.balanceOf(from).Cmp(amount) < 0 {
		return ErrExceedsBalance
	}
	t.debit(from, amount)
	t.credit(to, amount)
	return nil
}

func (t *Token) debit(from common.Address, amount *big.Int) {
	if bal := t.balances[from]; bal != nil {
		bal.Sub(bal, amount)
	}
}

func (t *Token) credit(to common.Address, amount *big.Int) {
	bal := t.balances[to]
	if bal == nil {
		bal = new(big.Int)
		t.balances[to] = bal
	}
	bal.Add(bal, amount)
}

func (t *Token) balanceOf(account common.Address) *big.Int {
	if b := t.balances[account]; b != nil {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}
