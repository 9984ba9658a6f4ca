package nftfarm

import (
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-nftfarm/contracts/nft"
	"github.com/rony4d/go-nftfarm/contracts/token"
	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
)

var (
	owner     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob       = common.HexToAddress("0x3000000000000000000000000000000000000003")
	carol     = common.HexToAddress("0x5000000000000000000000000000000000000005")
	farmAddr  = common.HexToAddress("0xf000000000000000000000000000000000000001")
	tokenAddr = common.HexToAddress("0xa000000000000000000000000000000000000001")
	nftAddr   = common.HexToAddress("0xb000000000000000000000000000000000000001")
)

type fixture struct {
	engine  *Engine
	token   *token.Token
	nft     *nft.NFT
	backend state.Backend
	hook    *logtest.Hook
}

type fixtureOpt func(cfg *Config)

// price renders Engine.Price for comparisons.
func price(t *testing.T, e *Engine, slot, unit uint64) string {
	t.Helper()
	p, err := e.Price(slot, unit)
	require.NoError(t, err)
	return p.String()
}

// newFixture deploys the default farm with alice and carol funded and approved.
func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()
	require := require.New(t)

	tok := token.New(tokenAddr, owner, "Life", "LIFE")
	coll := nft.New(nftAddr, owner, "Life NFT", "LNFT", "ipfs://")
	require.NoError(coll.ManageMinters(owner, farmAddr, true))

	for _, acc := range []common.Address{alice, carol} {
		require.NoError(tok.Mint(owner, acc, farm.Ether(100000)))
		require.NoError(tok.Approve(acc, farmAddr, farm.Ether(100000)))
	}

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := Config{
		Address: farmAddr,
		Owner:   owner,
		Rules:   farm.DefaultRules(),
		Token:   tok,
		NFT:     coll,
		Backend: state.NewMemoryBackend(),
		Log:     logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	e, err := New(cfg)
	require.NoError(err)
	return &fixture{engine: e, token: tok, nft: coll, backend: cfg.Backend, hook: hook}
}

func TestNewRequiresCollaborators(t *testing.T) {
	require := require.New(t)

	tok := token.New(tokenAddr, owner, "Life", "LIFE")
	coll := nft.New(nftAddr, owner, "Life NFT", "LNFT", "ipfs://")

	_, err := New(Config{Owner: owner, NFT: coll, Rules: farm.DefaultRules()})
	require.Equal(ErrNoToken, err)
	_, err = New(Config{Owner: owner, Token: tok, Rules: farm.DefaultRules()})
	require.Equal(ErrNoNFT, err)
	_, err = New(Config{Address: farmAddr, Token: tok, NFT: coll, Rules: farm.DefaultRules()})
	require.True(errors.Is(err, ErrZeroAddress))
	_, err = New(Config{Owner: owner, Token: tok, NFT: coll, Rules: farm.DefaultRules()})
	require.True(errors.Is(err, ErrZeroAddress))
	require.Contains(err.Error(), "address")

	bad := farm.DefaultRules()
	bad.MinInterval = 9
	_, err = New(Config{Address: farmAddr, Owner: owner, Token: tok, NFT: coll, Rules: bad})
	require.True(errors.Is(err, farm.ErrInvalidInterval))
}

func TestMintDefault(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	rec, err := f.engine.Mint(alice, 0)
	require.NoError(err)
	require.Equal(uint64(0), rec.Slot)
	require.Equal(uint64(0), rec.Unit)
	require.Equal(uint64(0), rec.TokenID)
	require.Equal(farm.Ether(66).String(), rec.Price.String())

	require.Equal(farm.Ether(100000-66).String(), f.token.BalanceOf(alice).String())
	require.Equal(farm.Ether(66).String(), f.token.BalanceOf(farmAddr).String())

	holder, err := f.nft.OwnerOf(rec.TokenID)
	require.NoError(err)
	require.Equal(alice, holder)
	uri, err := f.nft.TokenURI(rec.TokenID)
	require.NoError(err)
	require.Equal("ipfs://QmWB5xPBcFRn8qR4uu1VHt1k9vUrxvbezYv3jDC7WD29ie/0.json", uri)
	require.Equal("Common", f.nft.NftName(0))

	require.Equal(uint64(1), f.engine.CurrentDistributedSupply())
	require.Equal(uint64(1), f.engine.ClaimedAmount(alice, 0))
	require.Equal(uint64(1), f.engine.SlotClaimed(0))
	require.Equal(alice, f.engine.LastOwner(0))
	require.Equal(common.Address{}, f.engine.LastOwner(1))

	var minted bool
	for _, entry := range f.hook.AllEntries() {
		if entry.Message == "Minted" {
			minted = true
			require.Equal(uint64(0), entry.Data["slot"])
		}
	}
	require.True(minted)
}

func TestAdmission(t *testing.T) {
	t.Run("out of interval", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)

		_, err := f.engine.Mint(alice, 4)
		require.Equal(ErrOutOfInterval, err)
		require.Equal(farm.Ether(100000).String(), f.token.BalanceOf(alice).String())
		require.Equal(uint64(0), f.nft.TotalSupply())

		require.NoError(f.engine.SetMintingInterval(owner, 4, 4))
		require.Equal(ErrOutOfInterval, f.engine.CanClaim(0, alice))
		require.NoError(f.engine.CanClaim(4, alice))
	})

	t.Run("nothing left", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetTotalSupply(owner, 1))

		_, err := f.engine.Mint(alice, 0)
		require.NoError(err)
		_, err = f.engine.Mint(alice, 1)
		require.Equal(ErrNothingLeft, err)

		// a slot already distributed stays claimable
		_, err = f.engine.Mint(carol, 0)
		require.NoError(err)
		require.Equal(uint64(1), f.engine.CurrentDistributedSupply())

		require.NoError(f.engine.SetTotalSupply(owner, 0))
		_, err = f.engine.Mint(alice, 1)
		require.NoError(err)
		require.Equal(uint64(2), f.engine.CurrentDistributedSupply())
	})

	t.Run("already claimed", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetAllowMultipleClaims(owner, false))

		_, err := f.engine.Mint(alice, 0)
		require.NoError(err)
		_, err = f.engine.Mint(alice, 0)
		require.Equal(ErrAlreadyClaimed, err)
		_, err = f.engine.Mint(carol, 0)
		require.NoError(err)

		require.NoError(f.engine.SetAllowMultipleClaims(owner, true))
		_, err = f.engine.Mint(alice, 0)
		require.NoError(err)
		require.Equal(uint64(2), f.engine.ClaimedAmount(alice, 0))
	})

	t.Run("global cap", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetMaxMintPerSlot(owner, 1))

		_, err := f.engine.Mint(alice, 0)
		require.NoError(err)
		_, err = f.engine.Mint(carol, 0)
		require.Equal(ErrMaxMint, err)
	})

	t.Run("zero global cap rejects every claim", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.SetMaxMintPerSlot(owner, 0))
		require.Equal(t, ErrMaxMint, f.engine.CanClaim(0, alice))
	})

	t.Run("slot cap", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetMaxMintPerSlot(owner, 1))
		require.NoError(f.engine.SetMaxMintBySlot(owner, 2, 2))

		for i := 0; i < 2; i++ {
			_, err := f.engine.Mint(alice, 2)
			require.NoError(err)
		}
		_, err := f.engine.Mint(alice, 2)
		require.Equal(ErrMaxMintBySlot, err)

		// clearing the override restores the global cap
		require.NoError(f.engine.SetMaxMintBySlot(owner, 2, 0))
		require.Equal(ErrMaxMint, f.engine.CanClaim(2, alice))
	})

	t.Run("payment", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)

		_, err := f.engine.Mint(bob, 0)
		require.True(errors.Is(err, token.ErrExceedsBalance))
		require.Equal("transfer amount exceeds balance", err.Error())
		require.Equal(uint64(0), f.engine.SlotClaimed(0))
		require.Equal(uint64(0), f.engine.CurrentDistributedSupply())
		require.Equal(uint64(0), f.nft.TotalSupply())

		// funded but not approved
		require.NoError(f.token.Mint(owner, bob, farm.Ether(100)))
		_, err = f.engine.Mint(bob, 0)
		require.True(errors.Is(err, token.ErrExceedsBalance))
		require.Equal(farm.Ether(100).String(), f.token.BalanceOf(bob).String())
	})

	t.Run("first failing rule wins", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetTotalSupply(owner, 1))
		require.NoError(f.engine.SetAllowMultipleClaims(owner, false))
		require.NoError(f.engine.SetMaxMintPerSlot(owner, 1))

		_, err := f.engine.Mint(alice, 0)
		require.NoError(err)

		require.Equal(ErrOutOfInterval, f.engine.CanClaim(9, alice))
		require.Equal(ErrNothingLeft, f.engine.CanClaim(1, alice))
		require.Equal(ErrAlreadyClaimed, f.engine.CanClaim(0, alice))
		require.Equal(ErrMaxMint, f.engine.CanClaim(0, carol))
		require.True(IsRejection(f.engine.CanClaim(0, carol)))
	})
}

func TestEndBlock(t *testing.T) {
	require := require.New(t)

	height := idx.Block(5)
	f := newFixture(t, func(cfg *Config) {
		cfg.Blocks = BlockSourceFunc(func() idx.Block { return height })
	})
	require.NoError(f.engine.CanClaim(0, alice))

	require.NoError(f.engine.SetEndBlock(owner, 10))
	height = 10
	require.NoError(f.engine.CanClaim(0, alice))
	height = 11
	require.Equal(ErrMintingEnded, f.engine.CanClaim(0, alice))
	// the deadline is checked before the interval
	require.Equal(ErrMintingEnded, f.engine.CanClaim(9, alice))

	require.NoError(f.engine.SetEndBlock(owner, 0))
	require.NoError(f.engine.CanClaim(0, alice))
}

func TestPricing(t *testing.T) {
	t.Run("global multiplier", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetMultiplier(owner, 2_000_000))

		rec, err := f.engine.Mint(alice, 0)
		require.NoError(err)
		require.Equal(farm.Ether(66).String(), rec.Price.String())
		require.Equal(farm.Ether(132).String(), f.engine.NextPrice(0).String())

		rec, err = f.engine.Mint(carol, 0)
		require.NoError(err)
		require.Equal(uint64(1), rec.Unit)
		require.Equal(farm.Ether(132).String(), rec.Price.String())

		// other slots start from the base again
		require.Equal(farm.Ether(66).String(), f.engine.NextPrice(1).String())
	})

	t.Run("slot overrides", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetPriceBySlot(owner, 1, farm.Ether(350)))
		require.NoError(f.engine.SetMultiplierBySlot(owner, 1, 1016282))

		expect := []string{
			"350000000000000000000",
			"355698700000000000000",
			"361490186233400000000",
			"367375969445652218800",
		}
		for i, s := range expect {
			require.Equal(s, price(t, f.engine, 1, uint64(i)))
		}

		total := new(big.Int)
		for i, s := range expect {
			rec, err := f.engine.Mint(alice, 1)
			require.NoError(err)
			require.Equal(s, rec.Price.String(), "unit %d", i)
			total.Add(total, rec.Price)
		}
		require.Equal(total.String(), f.token.BalanceOf(farmAddr).String())

		// slot 0 is untouched by slot 1's overrides
		require.Equal(farm.Ether(66).String(), price(t, f.engine, 0, 3))
	})

	t.Run("slot multiplier zero falls back to global", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetMultiplier(owner, 2_000_000))
		require.NoError(f.engine.SetMultiplierBySlot(owner, 0, 1_500_000))
		require.Equal(farm.Ether(99).String(), price(t, f.engine, 0, 1))

		require.NoError(f.engine.SetMultiplierBySlot(owner, 0, 0))
		require.Equal(farm.Ether(132).String(), price(t, f.engine, 0, 1))
	})

	t.Run("zero price override is free", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetPriceBySlot(owner, 3, new(big.Int)))

		rec, err := f.engine.Mint(bob, 3)
		require.NoError(err)
		require.Equal(0, rec.Price.Sign())
	})

	t.Run("token per burn", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		require.NoError(f.engine.SetTokenPerBurn(owner, farm.Ether(1)))
		require.Equal(farm.Ether(1).String(), price(t, f.engine, 2, 0))

		require.Equal(farm.ErrInvalidPrice, f.engine.SetTokenPerBurn(owner, big.NewInt(-1)))
		require.Equal(farm.ErrInvalidPrice, f.engine.SetTokenPerBurn(owner, nil))
		require.Equal(farm.Ether(1).String(), f.engine.Rules().TokenPerBurn.String())
	})
}

func TestMinted(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	require.NoError(f.engine.SetMaxMintBySlot(owner, 3, 10))

	for _, slot := range []uint64{3, 0, 3} {
		_, err := f.engine.Mint(alice, slot)
		require.NoError(err)
	}
	_, err := f.engine.Mint(carol, 3)
	require.NoError(err)

	rows := f.engine.Minted(alice)
	require.Len(rows, 2)

	require.Equal(uint64(0), rows[0].Slot)
	require.Equal(uint64(1), rows[0].Claimed)
	require.Equal(uint64(1), rows[0].Mine)
	require.Equal(uint64(666), rows[0].MaxMint)
	require.Equal(alice, rows[0].LastOwner)

	require.Equal(uint64(3), rows[1].Slot)
	require.Equal(uint64(3), rows[1].Claimed)
	require.Equal(uint64(2), rows[1].Mine)
	require.Equal(uint64(10), rows[1].MaxMint)
	require.Equal(carol, rows[1].LastOwner)
	require.Equal(farm.Ether(66).String(), rows[1].Price.String())

	require.Empty(f.engine.Minted(bob))
}

func TestPrivileges(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	e := f.engine

	ownerOnly := map[string]func(caller common.Address) error{
		"interval":   func(c common.Address) error { return e.SetMintingInterval(c, 0, 5) },
		"multiplier": func(c common.Address) error { return e.SetMultiplier(c, 1) },
		"max mint":   func(c common.Address) error { return e.SetMaxMintPerSlot(c, 1) },
		"supply":     func(c common.Address) error { return e.SetTotalSupply(c, 1) },
		"price":      func(c common.Address) error { return e.SetTokenPerBurn(c, big.NewInt(1)) },
		"base uri":   func(c common.Address) error { return e.SetBaseURI(c, "ar://") },
		"hash":       func(c common.Address) error { return e.SetContentHash(c, "Qm") },
		"rarity":     func(c common.Address) error { return e.SetRarity(c, "Rare") },
		"multiple":   func(c common.Address) error { return e.SetAllowMultipleClaims(c, false) },
		"end block":  func(c common.Address) error { return e.SetEndBlock(c, 1) },
		"token":      func(c common.Address) error { return e.ChangeToken(c, f.token) },
		"manager":    func(c common.Address) error { return e.SetManager(c, bob, true) },
	}
	for name, fn := range ownerOnly {
		require.Equal(ErrNotOwner, fn(alice), name)
	}

	managerTier := map[string]func(caller common.Address) error{
		"slot price":      func(c common.Address) error { return e.SetPriceBySlot(c, 0, big.NewInt(1)) },
		"slot multiplier": func(c common.Address) error { return e.SetMultiplierBySlot(c, 0, 1) },
		"slot max mint":   func(c common.Address) error { return e.SetMaxMintBySlot(c, 0, 1) },
	}
	for name, fn := range managerTier {
		require.Equal(ErrNotManager, fn(alice), name)
	}
	// role check precedes validation
	require.Equal(ErrNotManager, e.SetPriceBySlot(alice, 0, big.NewInt(-1)))

	require.True(e.IsManager(owner))
	require.NoError(e.SetManager(owner, alice, true))
	require.True(e.IsManager(alice))
	for name, fn := range managerTier {
		require.NoError(fn(alice), name)
	}
	require.Equal(ErrNotOwner, e.SetMultiplier(alice, 1), "managers stay below owner")

	require.NoError(e.SetManager(owner, alice, false))
	require.False(e.IsManager(alice))
	require.True(errors.Is(e.SetManager(owner, common.Address{}, true), ErrZeroAddress))
	require.True(IsPrivilegeError(e.SetMaxMintBySlot(alice, 0, 1)))
}

func TestTransferOwnership(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	require.Equal(ErrNotOwner, f.engine.TransferOwnership(alice, alice))
	require.True(errors.Is(f.engine.TransferOwnership(owner, common.Address{}), ErrZeroAddress))

	require.NoError(f.engine.TransferOwnership(owner, bob))
	require.Equal(bob, f.engine.Owner())
	require.Equal(ErrNotOwner, f.engine.SetMultiplier(owner, 1))
	require.NoError(f.engine.SetMultiplier(bob, 1))
	require.True(f.engine.IsManager(bob))
}

func TestSetMintingIntervalRejectsInverted(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	err := f.engine.SetMintingInterval(owner, 3, 2)
	require.True(errors.Is(err, farm.ErrInvalidInterval))
	r := f.engine.Rules()
	require.Equal(uint64(0), r.MinInterval)
	require.Equal(uint64(3), r.MaxInterval)
}

func TestMetadataSetters(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	require.NoError(f.engine.SetBaseURI(owner, "ar://"))
	require.NoError(f.engine.SetContentHash(owner, "bundle"))
	require.NoError(f.engine.SetRarity(owner, "Rare"))

	rec, err := f.engine.Mint(alice, 2)
	require.NoError(err)
	uri, err := f.nft.TokenURI(rec.TokenID)
	require.NoError(err)
	require.Equal("ar://bundle/2.json", uri)
	name, err := f.nft.NftNameOfTokenID(rec.TokenID)
	require.NoError(err)
	require.Equal("Rare", name)
}

func TestChangeToken(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	other := token.New(common.HexToAddress("0xa000000000000000000000000000000000000002"), owner, "Cake", "CAKE")
	require.NoError(other.Mint(owner, bob, farm.Ether(66)))
	require.NoError(other.Approve(bob, farmAddr, farm.Ether(66)))

	require.Equal(ErrNoToken, f.engine.ChangeToken(owner, nil))
	require.NoError(f.engine.ChangeToken(owner, other))
	require.Equal(other.Address(), f.engine.Rules().PaymentToken)

	_, err := f.engine.Mint(bob, 0)
	require.NoError(err)
	require.Equal(0, other.BalanceOf(bob).Sign())
	require.Equal(farm.Ether(66).String(), other.BalanceOf(farmAddr).String())

	_, err = f.engine.Mint(alice, 0)
	require.True(errors.Is(err, token.ErrExceedsBalance))
}

func TestMintRefundsWhenNFTFails(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	require.NoError(f.nft.ManageMinters(owner, farmAddr, false))

	_, err := f.engine.Mint(alice, 0)
	require.True(errors.Is(err, nft.ErrNotMinter))
	require.Equal(farm.Ether(100000).String(), f.token.BalanceOf(alice).String())
	require.Equal(0, f.token.BalanceOf(farmAddr).Sign())
	require.Equal(uint64(0), f.engine.SlotClaimed(0))
	require.Equal(uint64(0), f.engine.CurrentDistributedSupply())
}

type flakyBackend struct {
	state.Backend
	fail bool
}

var errDiskFull = errors.New("disk full")

func (b *flakyBackend) Commit(ch *state.Changes) error {
	if b.fail {
		return errDiskFull
	}
	return b.Backend.Commit(ch)
}

func TestCommitFailure(t *testing.T) {
	require := require.New(t)

	backend := &flakyBackend{Backend: state.NewMemoryBackend()}
	f := newFixture(t, func(cfg *Config) { cfg.Backend = backend })
	backend.fail = true

	err := f.engine.SetMultiplier(owner, 2_000_000)
	require.True(errors.Is(err, ErrCommit))
	require.True(errors.Is(err, errDiskFull))
	require.Equal(uint64(0), f.engine.Rules().Multiplier, "setter must not apply an unpersisted change")

	rec, err := f.engine.Mint(alice, 0)
	require.True(errors.Is(err, ErrCommit))
	require.NotNil(rec)
	require.Equal(uint64(1), f.engine.SlotClaimed(0))
}

func TestReloadFromBackend(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	require.NoError(f.engine.SetManager(owner, bob, true))
	require.NoError(f.engine.SetPriceBySlot(bob, 1, farm.Ether(10)))
	_, err := f.engine.Mint(alice, 1)
	require.NoError(err)

	// configured rules are ignored once a ledger exists
	rules := farm.DefaultRules()
	rules.TotalSupply = 1
	e, err := New(Config{
		Address: farmAddr,
		Owner:   carol,
		Rules:   rules,
		Token:   f.token,
		NFT:     f.nft,
		Backend: f.backend,
		Log:     logrus.New(),
	})
	require.NoError(err)

	require.Equal(owner, e.Owner())
	require.True(e.IsManager(bob))
	require.Equal(uint64(6666), e.Rules().TotalSupply)
	require.Equal(uint64(1), e.ClaimedAmount(alice, 1))
	require.Equal(farm.Ether(10).String(), e.NextPrice(1).String())
	require.Equal(uint64(1), e.CurrentDistributedSupply())
	require.NoError(e.Close())
}

func TestConcurrentMints(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	require.NoError(f.engine.SetMaxMintPerSlot(owner, 20))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
		units    = make(map[uint64]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(acc common.Address) {
			defer wg.Done()
			rec, err := f.engine.Mint(acc, 0)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
				units[rec.Unit] = true
			case errors.Is(err, ErrMaxMint):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}([]common.Address{alice, carol}[i%2])
	}
	wg.Wait()

	require.Equal(20, ok)
	require.Equal(30, rejected)
	require.Len(units, 20, "every unit ordinal is sold once")
	require.Equal(uint64(20), f.engine.SlotClaimed(0))
	require.Equal(uint64(1), f.engine.CurrentDistributedSupply())
	require.Equal(uint64(20), f.nft.TotalSupply())
	require.Equal(farm.Ether(66*20).String(), f.token.BalanceOf(farmAddr).String())
}

func TestPriceUnitBound(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	_, err := f.engine.Price(0, MaxUnitIndex)
	require.NoError(err)
	_, err = f.engine.Price(0, MaxUnitIndex+1)
	require.True(errors.Is(err, ErrUnitTooLarge))
}

// TestMintNotBlockedByPricing checks that evaluating a long curve does not
// hold the engine lock.
func TestMintNotBlockedByPricing(t *testing.T) {
	if testing.Short() {
		t.Skip("evaluates a long curve")
	}
	require := require.New(t)
	f := newFixture(t)
	require.NoError(f.engine.SetMultiplier(owner, 2_000_000))

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := f.engine.Price(0, MaxUnitIndex)
		done <- err
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	_, err := f.engine.Mint(alice, 1)
	require.NoError(err)
	select {
	case <-done:
		t.Fatal("Mint returned only after the price evaluation finished")
	default:
	}
	require.NoError(<-done)
}

type countingBackend struct {
	state.Backend
	mu      sync.Mutex
	commits int
}

func (b *countingBackend) Commit(ch *state.Changes) error {
	b.mu.Lock()
	b.commits++
	b.mu.Unlock()
	return b.Backend.Commit(ch)
}

func (b *countingBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commits
}

func TestReadsDoNotMutate(t *testing.T) {
	for _, used := range []bool{false, true} {
		name := "fresh"
		if used {
			name = "used"
		}
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			backend := &countingBackend{Backend: state.NewMemoryBackend()}
			f := newFixture(t, func(cfg *Config) { cfg.Backend = backend })
			require.NoError(f.engine.SetMultiplier(owner, 1_500_000))
			if used {
				_, err := f.engine.Mint(alice, 1)
				require.NoError(err)
				_, err = f.engine.Mint(carol, 1)
				require.NoError(err)
			}

			digest := func() string {
				f.engine.mu.RLock()
				defer f.engine.mu.RUnlock()
				raw, err := json.Marshal(f.engine.st.Snapshot())
				require.NoError(err)
				return string(raw)
			}
			before := digest()
			commits := backend.count()
			supply := f.engine.CurrentDistributedSupply()
			next := f.engine.NextPrice(1).String()

			for i := 0; i < 3; i++ {
				for _, slot := range []uint64{0, 1, 2, 9} {
					_, err := f.engine.Price(slot, 5)
					require.NoError(err)
					f.engine.NextPrice(slot)
					f.engine.SlotClaimed(slot)
					f.engine.ClaimedAmount(alice, slot)
					f.engine.ClaimedAmount(bob, slot)
					_ = f.engine.CanClaim(slot, alice)
					_ = f.engine.CanClaim(slot, bob)
					f.engine.Slot(slot)
					f.engine.LastOwner(slot)
				}
				f.engine.Minted(alice)
				f.engine.Minted(bob)
			}

			require.Equal(before, digest())
			require.Equal(commits, backend.count())
			require.Equal(supply, f.engine.CurrentDistributedSupply())
			for _, slot := range []uint64{0, 2, 9} {
				require.False(f.engine.st.HasSlot(slot), "slot %d", slot)
			}
			require.Empty(f.engine.Minted(bob))

			rec, err := f.engine.Mint(alice, 1)
			require.NoError(err)
			require.Equal(next, rec.Price.String())
		})
	}
}
