package tx

import (
	"encoding/binary"

	"github.com/crest-chain/crest-wallet/pkg/crypto"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

// DepositBuilder assembles a UTXO-to-staked-account deposit: UTXO inputs
// spending transfer outputs, with a single staking address as destination.
// It shares the transfer builder's per-input signing state machine.
type DepositBuilder struct {
	network   types.Network
	to        types.Address
	inputs    []Input
	completed []byte
}

// NewDepositBuilder creates an empty deposit transaction targeting the given
// staking address.
func NewDepositBuilder(network types.Network, to types.Address) (*DepositBuilder, error) {
	if to.Kind() != types.KindStaking {
		return nil, types.ErrKindMismatch
	}
	return &DepositBuilder{network: network, to: to}, nil
}

// AddInput appends an input referencing a prior transfer output with an
// unsigned signature slot.
func (b *DepositBuilder) AddInput(txid types.Hash, index uint16, owner types.Address, amount uint64) error {
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

// signingBytes binds the network, the staking destination, and the input's
// claimed tuple. The destination is the deposit's only output, so covering it
// prevents redirecting partially signed deposits.
func (b *DepositBuilder) signingBytes(in *Input) []byte {
	buf := []byte{TagDeposit, byte(b.network)}
	buf = append(buf, b.to.RawBytes()...)
	buf = appendInputBinding(buf, in)
	return buf
}

// SignInput signs the input at idx with kp, which must own the input's
// claimed transfer address.
func (b *DepositBuilder) SignInput(kp *crypto.KeyPair, idx int) error {
	if b.completed != nil {
		return ErrAlreadyComplete
	}
	return signInputAt(b.inputs, idx, kp, b.signingBytes)
}

// Inputs returns the number of inputs added so far.
func (b *DepositBuilder) Inputs() int {
	return len(b.inputs)
}

// Complete serializes the deposit to its canonical wire encoding once every
// input slot is signed.
func (b *DepositBuilder) Complete() ([]byte, error) {
	if b.completed != nil {
		out := make([]byte, len(b.completed))
		copy(out, b.completed)
		return out, nil
	}
	if !allSigned(b.inputs) {
		return nil, ErrIncompleteSigning
	}

	buf := []byte{TagDeposit, byte(b.network)}
	buf = append(buf, b.to.RawBytes()...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.inputs)))
	for i := range b.inputs {
		buf = appendSignedInput(buf, &b.inputs[i])
	}

	b.completed = buf
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}
