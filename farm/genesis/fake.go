package genesis

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// FakeKey returns the n-th deterministic development key. Same n, same key.
//
// Example:
//
//	owner := FakeKey(0)
//	alice := FakeKey(1)
func FakeKey(n uint64) *ecdsa.PrivateKey {
	seed := crypto.Keccak256([]byte("nftfarm-fake"), bigendian.Uint64ToBytes(n))
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		// a keccak digest outside the curve order is not expected in practice
		panic(err)
	}
	return key
}

// FakeAccount returns the address of FakeKey(n).
func FakeAccount(n uint64) common.Address {
	return crypto.PubkeyToAddress(FakeKey(n).PublicKey)
}

// FakeAllocations funds accounts FakeAccount(1..count) with balance each.
// Account 0 is reserved for the owner.
func FakeAllocations(count uint64, balance *big.Int) []Allocation {
	out := make([]Allocation, 0, count)
	for i := uint64(1); i <= count; i++ {
		out = append(out, Allocation{Account: FakeAccount(i), Amount: new(big.Int).Set(balance)})
	}
	return out
}
