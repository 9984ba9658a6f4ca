package genesis

// Package genesis describes the initial deployment of a farm and assembles it:
// the payment token, the NFT collection, the engine, and the permissions that
// tie them together.
//
// Key concepts:
//   - Genesis: addresses, names, rules and initial token allocations
//   - Deployment: the live collaborators produced from a Genesis
//
// Usage:
//   g := genesis.FakeGenesis(owner, farm.DefaultRules())
//   d, err := genesis.Deploy(g, genesis.Options{Backend: store})
//
// When the backend already holds a ledger, Deploy still assembles the
// collaborators but the engine keeps its stored rules and roles.

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-nftfarm/contracts/nft"
	"github.com/rony4d/go-nftfarm/contracts/token"
	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
	"github.com/rony4d/go-nftfarm/nftfarm"
)

// ErrNoOwner is returned when a genesis has no owner account.
var ErrNoOwner = errors.New("genesis: owner is not set")

// Allocation credits an account with payment tokens at deployment.
type Allocation struct {
	Account common.Address
	Amount  *big.Int
}

// Genesis is the complete description of a deployment.
type Genesis struct {
	Owner common.Address // deployer: owns the farm, the token and the collection

	// Contract addresses. Zero values are derived from the owner.
	Farm         common.Address
	TokenAddress common.Address
	NFTAddress   common.Address

	TokenName   string
	TokenSymbol string
	NFTName     string
	NFTSymbol   string

	Rules farm.Rules

	Allocations []Allocation
	// ApproveFarm lets the farm spend every allocation in full, which is how
	// development accounts are usually prepared.
	ApproveFarm bool
}

// Options carries the runtime collaborators of a deployment.
type Options struct {
	Backend state.Backend
	Blocks  nftfarm.BlockSource
	Log     logrus.FieldLogger
}

// Deployment is a live farm with its in-process collaborators.
type Deployment struct {
	Genesis Genesis
	Engine  *nftfarm.Engine
	Token   *token.Token
	NFT     *nft.NFT
}

// FakeGenesis returns a development deployment owned by owner, with the
// reference names of the NftMinting fixture.
func FakeGenesis(owner common.Address, rules farm.Rules) Genesis {
	return Genesis{
		Owner:       owner,
		TokenName:   "Life",
		TokenSymbol: "LIFE",
		NFTName:     "Life NFT",
		NFTSymbol:   "LNFT",
		Rules:       rules,
	}
}

// ContractAddress derives the address of the nonce-th contract deployed by owner.
func ContractAddress(owner common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(owner, nonce)
}

// Deploy assembles a farm from g. Contract addresses left empty are derived
// from the owner in deployment order: token, collection, farm.
func Deploy(g Genesis, opts Options) (*Deployment, error) {
	if g.Owner == (common.Address{}) {
		return nil, ErrNoOwner
	}
	if g.TokenAddress == (common.Address{}) {
		g.TokenAddress = ContractAddress(g.Owner, 0)
	}
	if g.NFTAddress == (common.Address{}) {
		g.NFTAddress = ContractAddress(g.Owner, 1)
	}
	if g.Farm == (common.Address{}) {
		g.Farm = ContractAddress(g.Owner, 2)
	}

	tok := token.New(g.TokenAddress, g.Owner, g.TokenName, g.TokenSymbol)
	coll := nft.New(g.NFTAddress, g.Owner, g.NFTName, g.NFTSymbol, g.Rules.BaseURI)

	engine, err := nftfarm.New(nftfarm.Config{
		Address: g.Farm,
		Owner:   g.Owner,
		Rules:   g.Rules,
		Token:   tok,
		NFT:     coll,
		Blocks:  opts.Blocks,
		Backend: opts.Backend,
		Log:     opts.Log,
	})
	if err != nil {
		return nil, err
	}
	if err := coll.ManageMinters(g.Owner, g.Farm, true); err != nil {
		return nil, fmt.Errorf("register farm as minter: %w", err)
	}
	for _, a := range g.Allocations {
		if err := tok.Mint(g.Owner, a.Account, a.Amount); err != nil {
			return nil, fmt.Errorf("allocate %s: %w", a.Account.Hex(), err)
		}
		if g.ApproveFarm {
			if err := tok.Approve(a.Account, g.Farm, a.Amount); err != nil {
				return nil, fmt.Errorf("approve %s: %w", a.Account.Hex(), err)
			}
		}
	}
	return &Deployment{Genesis: g, Engine: engine, Token: tok, NFT: coll}, nil
}
