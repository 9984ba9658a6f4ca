package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-nftfarm/farm"
)

var (
	tokenAddr = common.HexToAddress("0xa000000000000000000000000000000000000001")
	owner     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob       = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func TestTokenMetadata(t *testing.T) {
	require := require.New(t)

	tok := New(tokenAddr, owner, "Life", "LIFE")
	require.Equal("Life", tok.Name())
	require.Equal("LIFE", tok.Symbol())
	require.Equal(uint8(18), tok.Decimals())
	require.Equal(tokenAddr, tok.Address())
	require.Equal(owner, tok.Owner())
	require.Equal(0, tok.TotalSupply().Sign())
}

func TestTokenMintOnlyOwner(t *testing.T) {
	require := require.New(t)

	tok := New(tokenAddr, owner, "Life", "LIFE")
	require.Equal(ErrNotOwner, tok.Mint(alice, alice, farm.Ether(1)))
	require.NoError(tok.Mint(owner, alice, farm.Ether(100)))
	require.Equal(farm.Ether(100).String(), tok.BalanceOf(alice).String())
	require.Equal(farm.Ether(100).String(), tok.TotalSupply().String())

	require.True(errors.Is(tok.Mint(owner, common.Address{}, farm.Ether(1)), ErrZeroAddress))
	require.Equal(ErrNegativeAmount, tok.Mint(owner, alice, big.NewInt(-1)))
}

func TestTokenTransfer(t *testing.T) {
	require := require.New(t)

	tok := New(tokenAddr, owner, "Life", "LIFE")
	require.NoError(tok.Mint(owner, alice, big.NewInt(10)))

	require.NoError(tok.Transfer(alice, bob, big.NewInt(4)))
	require.Equal(int64(6), tok.BalanceOf(alice).Int64())
	require.Equal(int64(4), tok.BalanceOf(bob).Int64())

	require.Equal(ErrExceedsBalance, tok.Transfer(alice, bob, big.NewInt(7)))
	require.Equal(int64(6), tok.BalanceOf(alice).Int64())
}

func TestTokenTransferFrom(t *testing.T) {
	require := require.New(t)

	tok := New(tokenAddr, owner, "Life", "LIFE")
	require.NoError(tok.Mint(owner, alice, big.NewInt(100)))

	t.Run("unfunded payer reports balance", func(t *testing.T) {
		err := tok.TransferFrom(bob, bob, alice, big.NewInt(1))
		require.Equal(ErrExceedsBalance, err)
	})

	t.Run("missing allowance", func(t *testing.T) {
		err := tok.TransferFrom(bob, alice, bob, big.NewInt(1))
		require.True(errors.Is(err, ErrExceedsBalance))
		require.True(errors.Is(err, ErrExceedsAllowance))
		require.Equal(int64(100), tok.BalanceOf(alice).Int64())
	})

	t.Run("approved", func(t *testing.T) {
		require.NoError(tok.Approve(alice, bob, big.NewInt(30)))
		require.NoError(tok.TransferFrom(bob, alice, bob, big.NewInt(20)))
		require.Equal(int64(80), tok.BalanceOf(alice).Int64())
		require.Equal(int64(20), tok.BalanceOf(bob).Int64())
		require.Equal(int64(10), tok.Allowance(alice, bob).Int64())

		err := tok.TransferFrom(bob, alice, bob, big.NewInt(11))
		require.True(errors.Is(err, ErrExceedsAllowance))
	})
}

func TestTokenAllowanceIsCopied(t *testing.T) {
	require := require.New(t)

	tok := New(tokenAddr, owner, "Life", "LIFE")
	amount := big.NewInt(5)
	require.NoError(tok.Approve(alice, bob, amount))
	amount.SetInt64(50)
	require.Equal(int64(5), tok.Allowance(alice, bob).Int64())
	require.Equal(0, tok.Allowance(bob, alice).Sign())
}

func TestTokenZeroAmount(t *testing.T) {
	require := require.New(t)

	tok := New(tokenAddr, owner, "Life", "LIFE")
	require.NoError(tok.TransferFrom(bob, alice, bob, new(big.Int)))
	require.NoError(tok.Transfer(alice, bob, new(big.Int)))
	require.Equal(0, tok.BalanceOf(bob).Sign())
}
