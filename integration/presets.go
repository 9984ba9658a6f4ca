package integration

import (
	"fmt"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-nftfarm/farm"
)

// Package integration provides named deployment presets for a farm. A preset
// bundles the rules of a known deployment so operators can start one with
// --preset instead of repeating a dozen farm flags.
//
// Usage:
//   p, err := integration.GetPresetByName("bunny")
//   rules := p.RulesAt(currentBlock)
//
// Presets only describe rules. Accounts, storage and transport are configured
// by the launcher.

// BlocksPerDay is the number of 3-second blocks produced in a day.
const BlocksPerDay = 28800

// PresetConfig is a named farm configuration.
type PresetConfig struct {
	Name  string
	Rules farm.Rules // EndBlock is left zero and derived from EndBlockOffset
	// EndBlockOffset closes minting this many blocks after deployment.
	// Zero keeps minting open.
	EndBlockOffset uint64
}

// DefaultPreset mirrors the reference NftMinting deployment: 6666 distinct
// slots at 66 tokens each, flat pricing, repeated claims allowed.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:  "default",
		Rules: farm.DefaultRules(),
	}
}

// BunnyPreset mirrors the BunnyMintingFarm deployment: five artworks at one
// token each, one claim per account per artwork, open for thirty days.
func BunnyPreset() PresetConfig {
	r := farm.DefaultRules()
	r.Name = "bunny"
	r.TotalSupply = 7404           // distinct slots the deploy script allowed
	r.TokenPerBurn = farm.Ether(1) // one token per burn
	r.MaxMintPerSlot = 7404        // a single artwork may absorb the whole supply
	r.AllowMultipleClaims = false  // one bunny of each kind per account
	r.MinInterval, r.MaxInterval = 0, 4
	r.ContentHash = "QmXdHqg3nywpNJWDevJQPtkz93vpfoHcZWQovFz2nmtPf5"
	return PresetConfig{
		Name:           "bunny",
		Rules:          r,
		EndBlockOffset: BlocksPerDay * 30,
	}
}

// RulesAt returns the preset rules for a deployment starting at block start.
func (p PresetConfig) RulesAt(start idx.Block) farm.Rules {
	r := p.Rules.Copy()
	if p.EndBlockOffset != 0 {
		r.EndBlock = start + idx.Block(p.EndBlockOffset)
	}
	return r
}

// PresetNames lists every preset GetPresetByName knows.
func PresetNames() []string {
	return []string{"default", "bunny"}
}

// GetPresetByName looks up a preset by its identifier.
//
// Example:
//
//	preset, err := integration.GetPresetByName("bunny")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "default", "":
		return DefaultPreset(), nil
	case "bunny":
		return BunnyPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: %s)", name, strings.Join(PresetNames(), ", "))
	}
}

// ApplyPreset merges a preset into target rules. Numeric and string fields of
// the preset override the target only when set; booleans always apply.
// The payment token of the target is kept.
func ApplyPreset(target *farm.Rules, preset PresetConfig) {
	p := preset.Rules
	if p.Name != "" {
		target.Name = p.Name
	}
	if p.TokenPerBurn != nil {
		target.TokenPerBurn = p.TokenPerBurn
	}
	if p.Multiplier != 0 {
		target.Multiplier = p.Multiplier
	}
	if p.MaxMintPerSlot != 0 {
		target.MaxMintPerSlot = p.MaxMintPerSlot
	}
	if p.TotalSupply != 0 {
		target.TotalSupply = p.TotalSupply
	}
	target.AllowMultipleClaims = p.AllowMultipleClaims
	if p.MinInterval != 0 || p.MaxInterval != 0 {
		target.MinInterval, target.MaxInterval = p.MinInterval, p.MaxInterval
	}
	if p.BaseURI != "" {
		target.BaseURI = p.BaseURI
	}
	if p.ContentHash != "" {
		target.ContentHash = p.ContentHash
	}
	if p.Rarity != "" {
		target.Rarity = p.Rarity
	}
	if p.EndBlock != 0 {
		target.EndBlock = p.EndBlock
	}
}
