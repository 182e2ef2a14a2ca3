// Package wallet implements HD wallet functionality: BIP-39 mnemonics,
// BIP-44 key derivation per address kind, and the encrypted on-disk
// keystore.
package wallet

import (
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// Mnemonic errors.
var (
	// ErrEntropyLength is returned when the requested entropy size is not
	// a valid BIP-39 strength.
	ErrEntropyLength = errors.New("invalid entropy length")
	// ErrInvalidMnemonic is returned on checksum mismatch or unknown word.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// DefaultEntropyBits is the entropy size for 24-word mnemonics.
const DefaultEntropyBits = 256

// validEntropyBits per BIP-39: 128..256 in 32-bit steps (12..24 words).
func validEntropyBits(bits int) bool {
	return bits >= 128 && bits <= 256 && bits%32 == 0
}

// NewMnemonic creates a BIP-39 mnemonic from fresh entropy of the given
// bit length (128, 160, 192, 224 or 256).
func NewMnemonic(entropyBits int) (string, error) {
	if !validEntropyBits(entropyBits) {
		return "", fmt.Errorf("%w: %d bits", ErrEntropyLength, entropyBits)
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	return NewMnemonic(DefaultEntropyBits)
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}
