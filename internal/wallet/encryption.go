package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrSealedSeed is returned when a sealed seed cannot be opened: wrong
// password, a tampered box, or a box sealed for a different keystore
// format version.
var ErrSealedSeed = errors.New("cannot open sealed seed")

const (
	// SaltSize is the Argon2 salt length in the sealed-seed layout.
	SaltSize = 32
	// Sealed layout: salt(32) | memory(4) | time(4) | threads(1) | nonce(24) | box.
	sealHeaderSize = SaltSize + 4 + 4 + 1
)

// SealParams are the Argon2id cost parameters baked into a sealed seed,
// so old wallet files stay readable after the defaults move.
type SealParams struct {
	Memory  uint32 // in KiB
	Time    uint32
	Threads uint8
}

// DefaultSealParams returns the Argon2id costs used for new wallet files.
func DefaultSealParams() SealParams {
	return SealParams{
		Memory:  64 * 1024, // 64 MiB
		Time:    3,
		Threads: 4,
	}
}

// sealKey stretches the wallet password into an XChaCha20 key.
func sealKey(password, salt []byte, params SealParams) []byte {
	return argon2.IDKey(
		password,
		salt,
		params.Time,
		params.Memory,
		params.Threads,
		chacha20poly1305.KeySize,
	)
}

// sealLabel is the AEAD associated data: it ties a sealed seed to the
// keystore file version it was written under, so a box lifted into a
// file claiming a different format version fails to open.
func sealLabel(version int) []byte {
	return []byte(fmt.Sprintf("crest/keystore/v%d", version))
}

// SealSeed encrypts a master seed under a wallet password using
// Argon2id and XChaCha20-Poly1305. Only full BIP-39 seeds are sealed;
// anything else is a caller bug.
func SealSeed(seed, password []byte, version int, params SealParams) ([]byte, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seal seed: got %d bytes, want %d", len(seed), SeedSize)
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := sealKey(password, salt, params)
	defer Zeroize(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	box := aead.Seal(nil, nonce, seed, sealLabel(version))

	out := make([]byte, 0, sealHeaderSize+len(nonce)+len(box))
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Time)
	out = append(out, params.Threads)
	out = append(out, nonce...)
	out = append(out, box...)
	return out, nil
}

// OpenSeed recovers a master seed sealed by SealSeed. The cost
// parameters come from the sealed layout itself; the version must match
// the one the seed was sealed under.
func OpenSeed(sealed, password []byte, version int) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	minSize := sealHeaderSize + nonceSize + chacha20poly1305.Overhead
	if len(sealed) < minSize {
		return nil, fmt.Errorf("sealed seed too short: %d bytes, need at least %d", len(sealed), minSize)
	}

	salt := sealed[:SaltSize]
	params := SealParams{
		Memory:  binary.LittleEndian.Uint32(sealed[SaltSize:]),
		Time:    binary.LittleEndian.Uint32(sealed[SaltSize+4:]),
		Threads: sealed[SaltSize+8],
	}
	nonce := sealed[sealHeaderSize : sealHeaderSize+nonceSize]
	box := sealed[sealHeaderSize+nonceSize:]

	key := sealKey(password, salt, params)
	defer Zeroize(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	seed, err := aead.Open(nil, nonce, box, sealLabel(version))
	if err != nil {
		return nil, ErrSealedSeed
	}
	if len(seed) != SeedSize {
		Zeroize(seed)
		return nil, ErrSealedSeed
	}
	return seed, nil
}
