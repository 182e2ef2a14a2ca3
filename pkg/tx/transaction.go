// Package tx builds and signs Crest transactions: confidential UTXO
// transfers, UTXO-to-stake deposits, and the public staking operations.
package tx

import (
	"encoding/binary"

	"github.com/crest-chain/crest-wallet/pkg/crypto"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

// Wire tags distinguishing transaction kinds in the canonical encoding.
const (
	TagUnbond   byte = 0x01
	TagUnjail   byte = 0x02
	TagNodeJoin byte = 0x03
	TagDeposit  byte = 0x04
	TagWithdraw byte = 0x05
)

// Input references a prior output together with the owner and amount the
// caller claims for it. The builder is stateless with respect to chain data,
// so the claim is not verified here; the signature binds it, and the chain
// rejects mismatches.
type Input struct {
	PrevOut types.Outpoint
	Owner   types.Address // transfer address that owns the referenced output
	Amount  uint64        // carsons

	// Signature slot, filled by SignInput.
	Signature []byte
	PubKey    []byte
}

// Signed reports whether the input's signature slot is filled.
func (in *Input) Signed() bool {
	return len(in.Signature) > 0
}

// Output defines a new UTXO: destination transfer address and amount in
// carsons.
type Output struct {
	Dest   types.Address
	Amount uint64
}

// appendInputBinding appends the fields of an input that every signature
// must cover: the exact (prevout, owner, amount) tuple the caller claimed.
func appendInputBinding(buf []byte, in *Input) []byte {
	buf = append(buf, in.PrevOut.TxID[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, in.PrevOut.Index)
	buf = append(buf, in.Owner.RawBytes()...)
	buf = binary.LittleEndian.AppendUint64(buf, in.Amount)
	return buf
}

// appendSignedInput appends the full wire form of an input, signature
// included.
func appendSignedInput(buf []byte, in *Input) []byte {
	buf = appendInputBinding(buf, in)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(in.Signature)))
	buf = append(buf, in.Signature...)
	buf = append(buf, in.PubKey...)
	return buf
}

// appendOutputs appends the wire form of the output list.
func appendOutputs(buf []byte, outputs []Output) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(outputs)))
	for _, out := range outputs {
		buf = append(buf, out.Dest.RawBytes()...)
		buf = binary.LittleEndian.AppendUint64(buf, out.Amount)
	}
	return buf
}

// appendViewKeys appends the wire form of the view key list.
func appendViewKeys(buf []byte, viewKeys [][]byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(viewKeys)))
	for _, vk := range viewKeys {
		buf = append(buf, vk...)
	}
	return buf
}

// signInputAt fills the signature slot of inputs[idx] using kp. The digest
// is computed by bindingFn, which must cover the input's claimed tuple and
// everything output substitution could alter.
func signInputAt(inputs []Input, idx int, kp *crypto.KeyPair, bindingFn func(in *Input) []byte) error {
	if idx < 0 || idx >= len(inputs) {
		return ErrIndexOutOfRange
	}
	in := &inputs[idx]
	if kp.Kind() != types.KindTransfer || !kp.Address().Equal(in.Owner) {
		return ErrWrongKey
	}
	digest := crypto.Hash(bindingFn(in))
	sig, err := kp.Sign(digest[:])
	if err != nil {
		return err
	}
	in.Signature = sig
	in.PubKey = kp.PublicKey()
	return nil
}

// allSigned reports whether every input slot is filled.
func allSigned(inputs []Input) bool {
	for i := range inputs {
		if !inputs[i].Signed() {
			return false
		}
	}
	return true
}
