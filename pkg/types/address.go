// Package types defines core primitive types for the Crest wallet.
package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

// Address raw sizes in bytes. Staking and transfer addresses are public-key
// hashes; view addresses carry a full compressed public key because the
// holder needs it for asymmetric decryption of confidential payloads.
const (
	AddressHashSize = 32
	ViewKeySize     = 33
)

// EncodedAddressMaxLen bounds the bech32 encoding of any address on any
// network. Callers holding fixed buffers can size them with this.
const EncodedAddressMaxLen = 90

// AddressKind tags the three address variants. An Address never changes kind
// after construction.
type AddressKind uint8

const (
	// KindStaking identifies account-model addresses used for bonded and
	// unbonded stake and validator operations.
	KindStaking AddressKind = iota + 1
	// KindTransfer identifies UTXO-model addresses used as input/output
	// owners in transfer transactions.
	KindTransfer
	// KindView identifies view keys: decryption rights over confidential
	// payloads, no spending authority.
	KindView
)

// String returns a human-readable kind name.
func (k AddressKind) String() string {
	switch k {
	case KindStaking:
		return "staking"
	case KindTransfer:
		return "transfer"
	case KindView:
		return "view"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// RawSize returns the canonical raw byte length for this kind.
func (k AddressKind) RawSize() int {
	if k == KindView {
		return ViewKeySize
	}
	return AddressHashSize
}

// ErrKindMismatch is returned when an address of one kind is used where
// another kind is required.
var ErrKindMismatch = errors.New("address kind mismatch")

// Address is a tagged variant over {staking, transfer, view}. The raw bytes
// are sufficient to re-derive the canonical bech32 encoding for any network.
type Address struct {
	kind AddressKind
	raw  []byte
}

// NewAddress constructs an address from raw bytes, validating the length for
// the kind.
func NewAddress(kind AddressKind, raw []byte) (Address, error) {
	if want := kind.RawSize(); len(raw) != want {
		return Address{}, fmt.Errorf("%s address must be %d bytes, got %d", kind, want, len(raw))
	}
	b := make([]byte, len(raw))
	copy(b, raw)
	return Address{kind: kind, raw: b}, nil
}

// Kind returns the address variant tag.
func (a Address) Kind() AddressKind {
	return a.kind
}

// IsZero returns true for the zero-value Address.
func (a Address) IsZero() bool {
	return a.kind == 0
}

// RawBytes returns a copy of the canonical raw form: 32 bytes for staking and
// transfer addresses, 33 bytes for view keys.
func (a Address) RawBytes() []byte {
	b := make([]byte, len(a.raw))
	copy(b, a.raw)
	return b
}

// Equal reports whether two addresses have the same kind and raw bytes.
func (a Address) Equal(b Address) bool {
	return a.kind == b.kind && bytes.Equal(a.raw, b.raw)
}

// Encode returns the bech32 encoding of the address for the given network.
// The encoding is deterministic: Decode(Encode(a)) always recovers a.
func (a Address) Encode(network Network) (string, error) {
	if a.IsZero() {
		return "", errors.New("encode zero address")
	}
	hrp, err := network.HRP(a.kind)
	if err != nil {
		return "", err
	}
	return Bech32Encode(hrp, a.raw)
}

// String returns the devnet bech32 encoding, falling back to kind:hex when
// encoding fails. Use Encode for network-correct output.
func (a Address) String() string {
	if a.IsZero() {
		return "<zero address>"
	}
	s, err := a.Encode(Devnet)
	if err != nil {
		return a.kind.String() + ":" + hex.EncodeToString(a.raw)
	}
	return s
}

// DecodeAddress parses a bech32 address of any kind, recovering the network
// and kind from the HRP.
func DecodeAddress(s string) (Address, Network, error) {
	hrp, data, err := Bech32Decode(s)
	if err != nil {
		return Address{}, 0, fmt.Errorf("invalid address: %w", err)
	}
	network, kind, ok := kindFromHRP(hrp)
	if !ok {
		return Address{}, 0, fmt.Errorf("invalid address: unknown HRP %q", hrp)
	}
	addr, err := NewAddress(kind, data)
	if err != nil {
		return Address{}, 0, fmt.Errorf("invalid address: %w", err)
	}
	return addr, network, nil
}

// DecodeAddressFor parses a bech32 address and requires it to match the given
// network and kind.
func DecodeAddressFor(s string, network Network, kind AddressKind) (Address, error) {
	addr, net, err := DecodeAddress(s)
	if err != nil {
		return Address{}, err
	}
	if net != network {
		return Address{}, fmt.Errorf("address %s is for %s, want %s", s, net, network)
	}
	if addr.kind != kind {
		return Address{}, fmt.Errorf("%w: address %s is a %s address, want %s",
			ErrKindMismatch, s, addr.kind, kind)
	}
	return addr, nil
}
