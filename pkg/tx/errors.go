package tx

import "errors"

// Sentinel errors for transaction construction. All are terminal for the
// single operation that raised them; builder state is left unchanged by a
// failed call.
var (
	// ErrAmountOverflow is returned when the running sum of outputs would
	// exceed the uint64 range.
	ErrAmountOverflow = errors.New("output amount overflow")
	// ErrIndexOutOfRange is returned when an input index is not allocated.
	ErrIndexOutOfRange = errors.New("input index out of range")
	// ErrWrongKey is returned when a signing key does not own the input's
	// claimed address.
	ErrWrongKey = errors.New("key does not match input owner")
	// ErrIncompleteSigning is returned by Complete while any input slot is
	// still unsigned.
	ErrIncompleteSigning = errors.New("not all inputs are signed")
	// ErrAlreadyComplete is returned when mutating a completed builder.
	ErrAlreadyComplete = errors.New("transaction already completed")
	// ErrInvalidValidatorKey is returned when a consensus public key does
	// not decode to a 32-byte ed25519 key.
	ErrInvalidValidatorKey = errors.New("invalid validator public key")
	// ErrInvalidFeeParameters is returned when fee parameters cannot be
	// parsed as non-negative fixed-point decimals.
	ErrInvalidFeeParameters = errors.New("invalid fee parameters")
)
