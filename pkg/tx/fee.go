package tx

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Milli is a non-negative fixed-point decimal with 1/1000 precision, stored
// as thousandths. Fee arithmetic stays in Milli to avoid floating-point
// drift in fee-critical code.
type Milli uint64

// milliScale is the number of thousandths per whole unit.
const milliScale = 1000

// ParseMilli parses a decimal string ("1.1", "0.005", "12") into a Milli.
// At most three fraction digits are representable; negative values and
// malformed input fail with ErrInvalidFeeParameters.
func ParseMilli(s string) (Milli, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidFeeParameters)
	}
	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
		fracPart = s[dot+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 3 {
		return 0, fmt.Errorf("%w: more than 3 fraction digits in %q", ErrInvalidFeeParameters, s)
	}

	whole, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFeeParameters, s)
	}
	if whole > (math.MaxUint64-999)/milliScale {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidFeeParameters, s)
	}

	frac := uint64(0)
	if fracPart != "" {
		frac, err = strconv.ParseUint(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFeeParameters, s)
		}
		// Scale "5" to 500, "05" to 50.
		for i := len(fracPart); i < 3; i++ {
			frac *= 10
		}
	}

	return Milli(whole*milliScale + frac), nil
}

// String formats the Milli as a decimal string.
func (m Milli) String() string {
	whole := uint64(m) / milliScale
	frac := uint64(m) % milliScale
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	return fmt.Sprintf("%d.%03d", whole, frac)
}

// EncryptedOverhead is the byte growth from sealing a signed transaction at
// the encryption oracle: kind tag (1) + transaction id (32) + AEAD nonce
// (24) + authentication tag (16).
const EncryptedOverhead = 73

// LinearFee estimates fees as constant + coefficient * payload_size.
// Immutable once constructed.
type LinearFee struct {
	constant    Milli
	coefficient Milli
}

// NewLinearFee builds a fee algorithm from decimal strings, e.g.
// NewLinearFee("1.1", "1.25").
func NewLinearFee(constant, coefficient string) (*LinearFee, error) {
	c, err := ParseMilli(constant)
	if err != nil {
		return nil, fmt.Errorf("constant: %w", err)
	}
	k, err := ParseMilli(coefficient)
	if err != nil {
		return nil, fmt.Errorf("coefficient: %w", err)
	}
	return &LinearFee{constant: c, coefficient: k}, nil
}

// Estimate returns the fee in carsons for a payload of the given byte size,
// rounding up. Saturates at MaxUint64 rather than wrapping.
func (f *LinearFee) Estimate(payloadSize int) uint64 {
	if payloadSize < 0 {
		payloadSize = 0
	}
	size := uint64(payloadSize)

	if f.coefficient != 0 && size > math.MaxUint64/uint64(f.coefficient) {
		return math.MaxUint64
	}
	total := size * uint64(f.coefficient)
	if total > math.MaxUint64-uint64(f.constant) {
		return math.MaxUint64
	}
	total += uint64(f.constant)

	// Ceil to whole carsons.
	if total > math.MaxUint64-(milliScale-1) {
		return math.MaxUint64 / milliScale
	}
	return (total + milliScale - 1) / milliScale
}

// EstimateAfterEncrypt returns the fee for a payload that will be sealed by
// the encryption oracle before broadcast. Callers must use this variant
// whenever the final broadcast carries an encrypted payload; the ciphertext
// is larger than the plaintext by EncryptedOverhead.
func (f *LinearFee) EstimateAfterEncrypt(payloadSize int) uint64 {
	if payloadSize < 0 {
		payloadSize = 0
	}
	return f.Estimate(payloadSize + EncryptedOverhead)
}
