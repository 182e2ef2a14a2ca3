package wallet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/crest-chain/crest-wallet/pkg/types"
)

func TestNewHDWallet(t *testing.T) {
	w, mnemonic, err := NewHDWallet(DefaultEntropyBits)
	if err != nil {
		t.Fatalf("NewHDWallet() error: %v", err)
	}
	if len(strings.Fields(mnemonic)) != 24 {
		t.Errorf("mnemonic word count = %d, want 24", len(strings.Fields(mnemonic)))
	}

	kp, err := w.Derive(types.KindTransfer, 0)
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	defer kp.Zero()
	if kp.Kind() != types.KindTransfer {
		t.Errorf("derived kind = %d, want %d", kp.Kind(), types.KindTransfer)
	}
}

func TestNewHDWallet_InvalidEntropy(t *testing.T) {
	_, _, err := NewHDWallet(100)
	if !errors.Is(err, ErrEntropyLength) {
		t.Errorf("error = %v, want ErrEntropyLength", err)
	}
}

func TestRestoreHDWallet(t *testing.T) {
	w1, mnemonic, err := NewHDWallet(128)
	if err != nil {
		t.Fatalf("NewHDWallet() error: %v", err)
	}

	w2, err := RestoreHDWallet(mnemonic)
	if err != nil {
		t.Fatalf("RestoreHDWallet() error: %v", err)
	}

	// Restored wallet derives the same keys.
	for _, kind := range []types.AddressKind{types.KindStaking, types.KindTransfer, types.KindView} {
		k1, err := w1.Derive(kind, 3)
		if err != nil {
			t.Fatalf("Derive() error: %v", err)
		}
		k2, err := w2.Derive(kind, 3)
		if err != nil {
			t.Fatalf("Derive() error: %v", err)
		}
		if !bytes.Equal(k1.PublicKey(), k2.PublicKey()) {
			t.Errorf("kind %d: restored wallet derives a different key", kind)
		}
	}
}

func TestRestoreHDWallet_InvalidMnemonic(t *testing.T) {
	_, err := RestoreHDWallet("definitely not a mnemonic")
	if !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("error = %v, want ErrInvalidMnemonic", err)
	}
}

func TestHDWallet_KindBranchesDiverge(t *testing.T) {
	w, err := RestoreHDWallet("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")
	if err != nil {
		t.Fatalf("RestoreHDWallet() error: %v", err)
	}

	staking, _ := w.Derive(types.KindStaking, 0)
	transfer, _ := w.Derive(types.KindTransfer, 0)
	view, _ := w.Derive(types.KindView, 0)

	if bytes.Equal(staking.PublicKey(), transfer.PublicKey()) ||
		bytes.Equal(staking.PublicKey(), view.PublicKey()) ||
		bytes.Equal(transfer.PublicKey(), view.PublicKey()) {
		t.Error("same index on different kind branches must yield distinct keys")
	}
}

func TestHDWallet_PassphraseChangesKeys(t *testing.T) {
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	plain, err := RestoreHDWallet(mnemonic)
	if err != nil {
		t.Fatalf("RestoreHDWallet() error: %v", err)
	}
	guarded, err := RestoreHDWalletWithPassphrase(mnemonic, "hunter2")
	if err != nil {
		t.Fatalf("RestoreHDWalletWithPassphrase() error: %v", err)
	}

	k1, _ := plain.Derive(types.KindTransfer, 0)
	k2, _ := guarded.Derive(types.KindTransfer, 0)
	if bytes.Equal(k1.PublicKey(), k2.PublicKey()) {
		t.Error("passphrase should change the derived keys")
	}
}

func TestHDWallet_Address(t *testing.T) {
	w, err := RestoreHDWallet("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")
	if err != nil {
		t.Fatalf("RestoreHDWallet() error: %v", err)
	}

	tests := []struct {
		kind   types.AddressKind
		prefix string
	}{
		{types.KindStaking, "csts1"},
		{types.KindTransfer, "cst1"},
		{types.KindView, "cstv1"},
	}

	for _, tt := range tests {
		addr, err := w.Address(types.Mainnet, tt.kind, 0)
		if err != nil {
			t.Fatalf("Address(kind=%d) error: %v", tt.kind, err)
		}
		if !strings.HasPrefix(addr, tt.prefix) {
			t.Errorf("address %q should start with %q", addr, tt.prefix)
		}
		// Round-trips through the decoder.
		decoded, err := types.DecodeAddressFor(addr, types.Mainnet, tt.kind)
		if err != nil {
			t.Errorf("DecodeAddressFor(%q) error: %v", addr, err)
			continue
		}
		if decoded.Kind() != tt.kind {
			t.Errorf("decoded kind = %d, want %d", decoded.Kind(), tt.kind)
		}
	}
}

func TestHDWallet_Deterministic(t *testing.T) {
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	w, _ := RestoreHDWallet(mnemonic)

	a1, err := w.Address(types.Devnet, types.KindTransfer, 4)
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	a2, err := w.Address(types.Devnet, types.KindTransfer, 4)
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	if a1 != a2 {
		t.Error("address derivation should be deterministic")
	}
}
