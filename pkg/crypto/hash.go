// Package crypto provides key material and signing primitives for the Crest
// wallet.
package crypto

import (
	"github.com/crest-chain/crest-wallet/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// AddressHashFromPubKey derives the 32-byte raw address form from a
// compressed public key: BLAKE3(compressed_pubkey). Staking and transfer
// addresses share this derivation; the kind tag keeps them distinct.
func AddressHashFromPubKey(pubKey []byte) []byte {
	h := Hash(pubKey)
	return h[:]
}
