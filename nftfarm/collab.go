package nftfarm

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// PaymentToken is the fungible ledger a claim is paid with.
type PaymentToken interface {
	Address() common.Address
	BalanceOf(account common.Address) *big.Int
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
	// Transfer is only used to refund a debit whose mint failed.
	Transfer(from, to common.Address, amount *big.Int) error
}

// NFTMinter is the collection claimed units are minted into.
type NFTMinter interface {
	Mint(minter, to common.Address, slot uint64, uri, name string) (uint64, error)
}

// BlockSource reports the current chain height.
type BlockSource interface {
	BlockNumber() idx.Block
}

// BlockSourceFunc adapts a plain function to BlockSource.
type BlockSourceFunc func() idx.Block

func (f BlockSourceFunc) BlockNumber() idx.Block { return f() }
