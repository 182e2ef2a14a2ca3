package crypto

import (
	"errors"
	"fmt"

	"github.com/crest-chain/crest-wallet/pkg/types"
)

// Sentinel errors for key material.
var (
	// ErrInvalidKeyEncoding is returned when raw bytes do not form a valid
	// key for the curve in use.
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")
	// ErrRngFailure is returned when the secure random source cannot
	// provide entropy.
	ErrRngFailure = errors.New("entropy source failure")
)

// KeyPair is a private scalar bound to the address kind it was created for.
// The pair is exclusively owned by its creator; Zero must be called when it
// is no longer needed.
type KeyPair struct {
	kind types.AddressKind
	priv *PrivateKey
}

// GenerateKeyPair creates a fresh key pair of the given kind from the secure
// random source.
func GenerateKeyPair(kind types.AddressKind) (*KeyPair, error) {
	priv, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{kind: kind, priv: priv}, nil
}

// RestoreKeyPair rebuilds a key pair from a 32-byte private scalar.
func RestoreKeyPair(kind types.AddressKind, raw []byte) (*KeyPair, error) {
	priv, err := PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, err
	}
	return &KeyPair{kind: kind, priv: priv}, nil
}

// KeyPairFromPrivateKey wraps an existing private key (e.g. an HD-derived
// one) as a key pair of the given kind.
func KeyPairFromPrivateKey(kind types.AddressKind, priv *PrivateKey) *KeyPair {
	return &KeyPair{kind: kind, priv: priv}
}

// Kind returns the address kind this pair was created for.
func (kp *KeyPair) Kind() types.AddressKind {
	return kp.kind
}

// ExportPrivate returns the raw 32-byte private scalar. The caller is
// responsible for erasing the copy after use.
func (kp *KeyPair) ExportPrivate() []byte {
	return kp.priv.Serialize()
}

// PublicKey returns the compressed 33-byte public key.
func (kp *KeyPair) PublicKey() []byte {
	return kp.priv.PublicKey()
}

// Sign produces a Schnorr signature over a 32-byte hash.
func (kp *KeyPair) Sign(hash []byte) ([]byte, error) {
	return kp.priv.Sign(hash)
}

// Address returns the canonical address for this key pair: the BLAKE3 hash
// of the compressed public key for staking/transfer kinds, the compressed
// public key itself for view keys.
func (kp *KeyPair) Address() types.Address {
	var raw []byte
	if kp.kind == types.KindView {
		raw = kp.priv.PublicKey()
	} else {
		raw = AddressHashFromPubKey(kp.priv.PublicKey())
	}
	addr, err := types.NewAddress(kp.kind, raw)
	if err != nil {
		// Raw sizes are fixed by construction.
		panic(fmt.Sprintf("key pair address: %v", err))
	}
	return addr
}

// PrintedAddress returns the bech32 encoding of the pair's address for the
// given network.
func (kp *KeyPair) PrintedAddress(network types.Network) (string, error) {
	return kp.Address().Encode(network)
}

// Zero securely zeroes the private scalar.
func (kp *KeyPair) Zero() {
	kp.priv.Zero()
}
