package api

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
	"github.com/rony4d/go-nftfarm/nftfarm"
)

// Amounts are rendered as decimal strings so wei values survive JSON clients
// that parse numbers as float64.

type errorView struct {
	Error string `json:"error"`
}

type rulesView struct {
	Name                string         `json:"name"`
	Farm                common.Address `json:"farm"`
	Owner               common.Address `json:"owner"`
	PaymentToken        common.Address `json:"paymentToken"`
	TokenPerBurn        string         `json:"tokenPerBurn"`
	Multiplier          uint64         `json:"multiplier"`
	MaxMintPerSlot      uint64         `json:"maxMintPerSlot"`
	TotalSupply         uint64         `json:"totalSupply"`
	AllowMultipleClaims bool           `json:"allowMultipleClaims"`
	MinInterval         uint64         `json:"minInterval"`
	MaxInterval         uint64         `json:"maxInterval"`
	BaseURI             string         `json:"baseURI"`
	ContentHash         string         `json:"contentHash"`
	Rarity              string         `json:"rarity"`
	EndBlock            uint64         `json:"endBlock"`
}

func newRulesView(r farm.Rules, owner, address common.Address) rulesView {
	return rulesView{
		Name:                r.Name,
		Farm:                address,
		Owner:               owner,
		PaymentToken:        r.PaymentToken,
		TokenPerBurn:        amount(r.TokenPerBurn),
		Multiplier:          r.Multiplier,
		MaxMintPerSlot:      r.MaxMintPerSlot,
		TotalSupply:         r.TotalSupply,
		AllowMultipleClaims: r.AllowMultipleClaims,
		MinInterval:         r.MinInterval,
		MaxInterval:         r.MaxInterval,
		BaseURI:             r.BaseURI,
		ContentHash:         r.ContentHash,
		Rarity:              r.Rarity,
		EndBlock:            uint64(r.EndBlock),
	}
}

type supplyView struct {
	Distributed uint64 `json:"distributed"`
	TotalSupply uint64 `json:"totalSupply"`
}

type slotView struct {
	Slot          uint64         `json:"slot"`
	Claimed       uint64         `json:"claimed"`
	LastOwner     common.Address `json:"lastOwner"`
	MaxMint       uint64         `json:"maxMint"`
	SlotCap       bool           `json:"slotCap"`
	BasePrice     string         `json:"basePrice"`
	Multiplier    uint64         `json:"multiplier"`
	NextPrice     string         `json:"nextPrice"`
	TokenURI      string         `json:"tokenURI"`
	InInterval    bool           `json:"inInterval"`
	PriceOverride bool           `json:"priceOverride"`
}

func newSlotView(sl state.Slot, r farm.Rules, next *big.Int) slotView {
	limit, own := sl.EffectiveMaxMint(r.MaxMintPerSlot)
	return slotView{
		Slot:          sl.ID,
		Claimed:       sl.Claimed,
		LastOwner:     sl.LastOwner,
		MaxMint:       limit,
		SlotCap:       own,
		BasePrice:     amount(sl.BasePrice(r.TokenPerBurn)),
		Multiplier:    sl.EffectiveMultiplier(r.Multiplier),
		NextPrice:     amount(next),
		TokenURI:      r.TokenURI(sl.ID),
		InInterval:    r.InInterval(sl.ID),
		PriceOverride: sl.Price != nil,
	}
}

type priceView struct {
	Slot  uint64 `json:"slot"`
	Unit  uint64 `json:"unit"`
	Price string `json:"price"`
}

type claimableView struct {
	Slot      uint64         `json:"slot"`
	Account   common.Address `json:"account"`
	Claimable bool           `json:"claimable"`
	Reason    string         `json:"reason,omitempty"`
}

type mintedView struct {
	Slot      uint64         `json:"slot"`
	Claimed   uint64         `json:"claimed"`
	LastOwner common.Address `json:"lastOwner"`
	MaxMint   uint64         `json:"maxMint"`
	Price     string         `json:"price"`
	Mine      uint64         `json:"mine"`
}

func newMintedView(row nftfarm.MintedRow) mintedView {
	return mintedView{
		Slot:      row.Slot,
		Claimed:   row.Claimed,
		LastOwner: row.LastOwner,
		MaxMint:   row.MaxMint,
		Price:     amount(row.Price),
		Mine:      row.Mine,
	}
}

type receiptView struct {
	Account common.Address `json:"account"`
	Slot    uint64         `json:"slot"`
	Unit    uint64         `json:"unit"`
	TokenID uint64         `json:"tokenId"`
	Price   string         `json:"price"`
}

func newReceiptView(rec *nftfarm.Receipt) receiptView {
	return receiptView{
		Account: rec.Account,
		Slot:    rec.Slot,
		Unit:    rec.Unit,
		TokenID: rec.TokenID,
		Price:   amount(rec.Price),
	}
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
