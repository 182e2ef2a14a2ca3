package types

import (
	"bytes"
	"strings"
	"testing"
)

func TestBech32_RoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, 0xff, 0x7f, 0x80, 0x55, 0xaa}
	encoded, err := Bech32Encode("cst", data)
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}

	hrp, decoded, err := Bech32Decode(encoded)
	if err != nil {
		t.Fatalf("Bech32Decode(%q): %v", encoded, err)
	}
	if hrp != "cst" {
		t.Errorf("hrp = %q, want cst", hrp)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded = %x, want %x", decoded, data)
	}
}

func TestBech32_RejectsMixedCase(t *testing.T) {
	encoded, err := Bech32Encode("cst", []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	mixed := strings.ToUpper(encoded[:4]) + encoded[4:]
	if _, _, err := Bech32Decode(mixed); err == nil {
		t.Error("mixed case should be rejected")
	}
}

func TestBech32_RejectsEmptyHRP(t *testing.T) {
	if _, err := Bech32Encode("", []byte{1}); err == nil {
		t.Error("empty HRP should be rejected")
	}
}

func TestBech32_AcceptsUpperCase(t *testing.T) {
	encoded, err := Bech32Encode("cst", []byte{9, 8, 7})
	if err != nil {
		t.Fatal(err)
	}
	hrp, data, err := Bech32Decode(strings.ToUpper(encoded))
	if err != nil {
		t.Fatalf("all-uppercase decode failed: %v", err)
	}
	if hrp != "cst" || !bytes.Equal(data, []byte{9, 8, 7}) {
		t.Error("all-uppercase decode mismatch")
	}
}
