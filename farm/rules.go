// Package farm defines the global configuration of an NftFarm deployment and
// the integer bonding curve that prices every unit it sells.
//
// This package provides:
//   - The fixed-point scale shared by all multipliers (PriceScale)
//   - The Rules type, the singleton configuration mutated only by privileged setters
//   - Default rules matching the reference NftMinting deployment
//   - CurvePrice, the per-step compounding price function
//
// Rules is a plain value. Callers that need a stable view copy it with Copy()
// and never share the *big.Int fields across copies.
package farm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

const (
	// PriceScale is the fixed-point denominator of every multiplier.
	// A multiplier equal to PriceScale is neutral (1.0x).
	PriceScale uint64 = 1_000_000

	// DefaultRarity is the label applied to minted units when none is configured.
	DefaultRarity = "Common"
)

var (
	// ErrInvalidInterval is returned when the minting window is inverted.
	ErrInvalidInterval = errors.New("farm: min interval is greater than max interval")

	// ErrInvalidPrice is returned for a missing or negative price.
	ErrInvalidPrice = errors.New("farm: price must be a non-negative integer")
)

// Rules is the global configuration of a farm.
type Rules struct {
	// Name identifies the deployment in logs and config dumps.
	Name string

	// TokenPerBurn is the global base price (in the payment token's smallest unit)
	// before any compounding is applied.
	TokenPerBurn *big.Int

	// Multiplier is the global compounding ratio, scaled by PriceScale.
	// Zero disables compounding entirely (flat pricing).
	Multiplier uint64

	// MaxMintPerSlot caps how many units of a single slot may ever be claimed,
	// unless the slot carries its own cap.
	MaxMintPerSlot uint64

	// TotalSupply caps the number of distinct slots that may ever be claimed.
	// It does not count units. Zero means no cap.
	TotalSupply uint64

	// AllowMultipleClaims lets one account claim the same slot more than once.
	AllowMultipleClaims bool

	// MinInterval and MaxInterval bound, inclusively, the slot indices that are
	// currently mintable.
	MinInterval uint64
	MaxInterval uint64

	// BaseURI and ContentHash form the metadata path prefix of every minted unit.
	BaseURI     string
	ContentHash string

	// Rarity is the display label applied uniformly to minted units.
	Rarity string

	// EndBlock closes minting once the chain is past this height. Zero keeps it open.
	EndBlock idx.Block

	// PaymentToken is the address of the asset debited on every claim.
	PaymentToken common.Address
}

// Ether converts a whole-token amount into its 18-decimal base unit.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

// DefaultRules returns the rules of the reference NftMinting deployment:
// 6666 distinct slots, 66 tokens per burn, flat pricing and a 666-unit cap
// on each slot of the [0, 3] window.
func DefaultRules() Rules {
	return Rules{
		Name:                "default",
		TokenPerBurn:        Ether(66),
		Multiplier:          0,
		MaxMintPerSlot:      666,
		TotalSupply:         6666,
		AllowMultipleClaims: true,
		MinInterval:         0,
		MaxInterval:         3,
		BaseURI:             "ipfs://",
		ContentHash:         "QmWB5xPBcFRn8qR4uu1VHt1k9vUrxvbezYv3jDC7WD29ie",
		Rarity:              DefaultRarity,
	}
}

// InInterval reports whether slot lies inside the minting window.
func (r Rules) InInterval(slot uint64) bool {
	return r.MinInterval <= slot && slot <= r.MaxInterval
}

// TokenURI returns the metadata location of units minted for slot.
func (r Rules) TokenURI(slot uint64) string {
	return r.BaseURI + r.ContentHash + "/" + strconv.FormatUint(slot, 10) + ".json"
}

// Validate checks the invariants a configuration must hold before it is applied.
func (r Rules) Validate() error {
	if r.TokenPerBurn == nil || r.TokenPerBurn.Sign() < 0 {
		return ErrInvalidPrice
	}
	if r.MinInterval > r.MaxInterval {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidInterval, r.MinInterval, r.MaxInterval)
	}
	return nil
}

// Copy creates a deep copy of Rules so the *big.Int price is never shared.
func (r Rules) Copy() Rules {
	cp := r
	if r.TokenPerBurn != nil {
		cp.TokenPerBurn = new(big.Int).Set(r.TokenPerBurn)
	}
	return cp
}

// String returns a JSON representation of Rules for debugging and logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
