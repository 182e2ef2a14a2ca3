package wallet

import (
	"fmt"

	"github.com/crest-chain/crest-wallet/pkg/crypto"
	"github.com/crest-chain/crest-wallet/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// BIP-44 derivation path constants.
// Full path: m/44'/CoinType'/account'/change/index
const (
	// PurposeBIP44 is the BIP-44 purpose field (hardened).
	PurposeBIP44 = bip32.FirstHardenedChild + 44

	// CoinTypeCrest is the registered coin type (hardened).
	CoinTypeCrest = bip32.FirstHardenedChild + 394
)

// Each address kind occupies its own fixed change branch so staking,
// transfer and view keys never collide under the same index.
const (
	ChangeStaking  = 0
	ChangeTransfer = 1
	ChangeView     = 2
)

// changeBranch maps an address kind to its BIP-44 change branch.
func changeBranch(kind types.AddressKind) (uint32, error) {
	switch kind {
	case types.KindStaking:
		return ChangeStaking, nil
	case types.KindTransfer:
		return ChangeTransfer, nil
	case types.KindView:
		return ChangeView, nil
	}
	return 0, fmt.Errorf("unknown address kind %d", kind)
}

// HDKey represents a hierarchical deterministic key (BIP-32).
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives a child key at the given index.
// For hardened derivation, add bip32.FirstHardenedChild to the index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DeriveAccountKey derives the key at m/44'/394'/account'/change/index,
// where the change branch is fixed by the address kind.
func (k *HDKey) DeriveAccountKey(account uint32, kind types.AddressKind, index uint32) (*HDKey, error) {
	change, err := changeBranch(kind)
	if err != nil {
		return nil, err
	}
	return k.DerivePath(
		PurposeBIP44,
		CoinTypeCrest,
		bip32.FirstHardenedChild+account,
		change,
		index,
	)
}

// PrivateKeyBytes returns the raw 32-byte private key.
// Returns nil if this is a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 Key.Key is 33 bytes with a leading 0x00 for private keys.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	pub := k.key.PublicKey()
	return pub.Key
}

// KeyPair converts this HD key into a key pair of the given kind.
// Returns an error if this is a public-only key.
func (k *HDKey) KeyPair(kind types.AddressKind) (*crypto.KeyPair, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot build key pair from public-only key")
	}
	return crypto.RestoreKeyPair(kind, priv)
}

// IsPrivate returns true if this key contains a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Neuter returns a public-key-only copy (for watch-only wallets).
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
