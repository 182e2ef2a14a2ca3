package tx

import (
	"encoding/binary"
	"math"

	"github.com/crest-chain/crest-wallet/pkg/crypto"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

// Builder assembles a confidential transfer transaction: UTXO inputs, UTXO
// outputs, and optional view keys granting decryption rights over the payload
// once the encryption oracle has sealed it.
//
// The builder is a two-state machine: building until Complete succeeds, then
// immutable. It is owned by a single caller; concurrent use of one Builder
// requires external synchronization.
type Builder struct {
	network   types.Network
	inputs    []Input
	outputs   []Output
	viewKeys  [][]byte
	outSum    uint64
	completed []byte // cached wire bytes once complete
}

// NewBuilder creates an empty transfer transaction for the given network.
func NewBuilder(network types.Network) *Builder {
	return &Builder{network: network}
}

// AddInput appends an input referencing a prior output with an unsigned
// signature slot. Duplicate (txid, index) pairs are not rejected here;
// double-spend detection is a chain concern.
func (b *Builder) AddInput(txid types.Hash, index uint16, owner types.Address, amount uint64) error {
	if b.completed != nil {
		return ErrAlreadyComplete
	}
	if owner.Kind() != types.KindTransfer {
		return types.ErrKindMismatch
	}
	b.inputs = append(b.inputs, Input{
		PrevOut: types.Outpoint{TxID: txid, Index: index},
		Owner:   owner,
		Amount:  amount,
	})
	return nil
}

// AddOutput appends an output. Fails with ErrAmountOverflow if the running
// sum of output amounts would exceed the uint64 range; the output list is
// left unchanged on failure.
func (b *Builder) AddOutput(dest types.Address, amount uint64) error {
	if b.completed != nil {
		return ErrAlreadyComplete
	}
	if dest.Kind() != types.KindTransfer {
		return types.ErrKindMismatch
	}
	if b.outSum > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	b.outSum += amount
	b.outputs = append(b.outputs, Output{Dest: dest, Amount: amount})
	return nil
}

// AddViewKey attaches a view key so its holder can decrypt the confidential
// payload. Repeatable for multiple viewers.
func (b *Builder) AddViewKey(view types.Address) error {
	if view.Kind() != types.KindView {
		return types.ErrKindMismatch
	}
	return b.AddViewKeyRaw(view.RawBytes())
}

// AddViewKeyRaw attaches a view key from its fixed 33-byte raw form.
func (b *Builder) AddViewKeyRaw(raw []byte) error {
	if b.completed != nil {
		return ErrAlreadyComplete
	}
	if err := crypto.ParsePubKey(raw); err != nil {
		return err
	}
	vk := make([]byte, len(raw))
	copy(vk, raw)
	b.viewKeys = append(b.viewKeys, vk)
	return nil
}

// signingBytes returns the byte string a signature for in must cover: the
// network tag, the input's claimed (prevout, owner, amount) tuple, and the
// full output and view-key lists. Binding the outputs prevents output
// substitution after partial signing.
func (b *Builder) signingBytes(in *Input) []byte {
	buf := []byte{byte(b.network)}
	buf = appendInputBinding(buf, in)
	buf = appendOutputs(buf, b.outputs)
	buf = appendViewKeys(buf, b.viewKeys)
	return buf
}

// SignInput signs the input at idx with kp. The key must own the input's
// claimed transfer address (checked by re-deriving the address from the key),
// otherwise ErrWrongKey. Inputs may be signed in any order and by
// independently held keys.
func (b *Builder) SignInput(kp *crypto.KeyPair, idx int) error {
	if b.completed != nil {
		return ErrAlreadyComplete
	}
	return signInputAt(b.inputs, idx, kp, b.signingBytes)
}

// Inputs returns the number of inputs added so far.
func (b *Builder) Inputs() int {
	return len(b.inputs)
}

// Outputs returns the number of outputs added so far.
func (b *Builder) Outputs() int {
	return len(b.outputs)
}

// Complete serializes the transaction to its canonical wire encoding. Valid
// only once every input slot is signed; fails with ErrIncompleteSigning
// otherwise. Input and output order is preserved exactly as added, so
// repeated calls return identical bytes.
func (b *Builder) Complete() ([]byte, error) {
	if b.completed != nil {
		out := make([]byte, len(b.completed))
		copy(out, b.completed)
		return out, nil
	}
	if !allSigned(b.inputs) {
		return nil, ErrIncompleteSigning
	}

	buf := []byte{byte(b.network)}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.inputs)))
	for i := range b.inputs {
		buf = appendSignedInput(buf, &b.inputs[i])
	}
	buf = appendOutputs(buf, b.outputs)
	buf = appendViewKeys(buf, b.viewKeys)

	b.completed = buf
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}
