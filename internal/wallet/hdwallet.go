package wallet

import (
	"fmt"

	"github.com/crest-chain/crest-wallet/pkg/crypto"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

// HDWallet derives key pairs deterministically from a BIP-39 mnemonic.
// All three address kinds share one seed; each kind lives on its own
// change branch so the same index never yields colliding keys.
type HDWallet struct {
	master *HDKey
}

// NewHDWallet generates a fresh wallet with the given entropy size and
// returns it together with the recovery mnemonic. The mnemonic is the
// only way to restore the wallet; callers must present it to the user.
func NewHDWallet(entropyBits int) (*HDWallet, string, error) {
	mnemonic, err := NewMnemonic(entropyBits)
	if err != nil {
		return nil, "", err
	}
	w, err := RestoreHDWallet(mnemonic)
	if err != nil {
		return nil, "", err
	}
	return w, mnemonic, nil
}

// RestoreHDWallet rebuilds a wallet from a previously generated mnemonic.
func RestoreHDWallet(mnemonic string) (*HDWallet, error) {
	return RestoreHDWalletWithPassphrase(mnemonic, "")
}

// RestoreHDWalletWithPassphrase rebuilds a wallet from a mnemonic with a
// BIP-39 passphrase.
func RestoreHDWalletWithPassphrase(mnemonic, passphrase string) (*HDWallet, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer Zeroize(seed)
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("restore wallet: %w", err)
	}
	return &HDWallet{master: master}, nil
}

// WrapMaster builds a wallet around an already-derived master key, e.g.
// one recovered from a keystore seed.
func WrapMaster(master *HDKey) *HDWallet {
	return &HDWallet{master: master}
}

// Derive returns the key pair at account 0, index idx on the change
// branch of the given kind.
func (w *HDWallet) Derive(kind types.AddressKind, idx uint32) (*crypto.KeyPair, error) {
	return w.DeriveAccount(0, kind, idx)
}

// DeriveAccount returns the key pair at m/44'/394'/account'/change/idx.
func (w *HDWallet) DeriveAccount(account uint32, kind types.AddressKind, idx uint32) (*crypto.KeyPair, error) {
	child, err := w.master.DeriveAccountKey(account, kind, idx)
	if err != nil {
		return nil, err
	}
	return child.KeyPair(kind)
}

// Address derives the key at the given kind and index and returns its
// bech32 form for the network, without retaining the private key.
func (w *HDWallet) Address(network types.Network, kind types.AddressKind, idx uint32) (string, error) {
	kp, err := w.Derive(kind, idx)
	if err != nil {
		return "", err
	}
	defer kp.Zero()
	return kp.PrintedAddress(network)
}
