package nftfarm

import "errors"

// Admission rejections, in the order the rules are evaluated.
var (
	ErrMintingEnded   = errors.New("minting has ended")
	ErrOutOfInterval  = errors.New("out of minting interval")
	ErrNothingLeft    = errors.New("nothing left to distribute")
	ErrAlreadyClaimed = errors.New("has already claimed")
	ErrMaxMintBySlot  = errors.New("max minting by slot reached")
	ErrMaxMint        = errors.New("max minting reached")
)

// Privilege failures of the admin surface.
var (
	ErrNotOwner   = errors.New("caller is not the owner")
	ErrNotManager = errors.New("not a manager")
)

var (
	ErrZeroAddress = errors.New("zero address")
	ErrNoToken     = errors.New("payment token is not set")
	ErrNoNFT       = errors.New("nft collection is not set")
	ErrCommit      = errors.New("commit ledger")

	// ErrUnitTooLarge is returned by Price for ordinals above MaxUnitIndex.
	ErrUnitTooLarge = errors.New("unit index too large")
)

var rejections = []error{
	ErrMintingEnded,
	ErrOutOfInterval,
	ErrNothingLeft,
	ErrAlreadyClaimed,
	ErrMaxMintBySlot,
	ErrMaxMint,
}

// IsRejection reports whether err is an admission rejection.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// IsPrivilegeError reports whether err comes from a failed role check.
func IsPrivilegeError(err error) bool {
	return errors.Is(err, ErrNotOwner) || errors.Is(err, ErrNotManager)
}
