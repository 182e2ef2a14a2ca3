package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/crest-chain/crest-wallet/pkg/types"
)

// TransferTx is the decoded form of a completed transfer transaction.
type TransferTx struct {
	Network  types.Network
	Inputs   []Input
	Outputs  []Output
	ViewKeys [][]byte
}

// DepositTx is the decoded form of a completed deposit transaction.
type DepositTx struct {
	Network types.Network
	To      types.Address
	Inputs  []Input
}

// reader is a bounds-checked cursor over wire bytes.
type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, fmt.Errorf("truncated at offset %d (want %d more bytes)", r.off, n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) done() error {
	if r.off != len(r.buf) {
		return fmt.Errorf("%d trailing bytes", len(r.buf)-r.off)
	}
	return nil
}

// readSignedInput parses one wire-form input including its signature.
func readSignedInput(r *reader) (Input, error) {
	var in Input

	txid, err := r.take(types.HashSize)
	if err != nil {
		return in, err
	}
	copy(in.PrevOut.TxID[:], txid)

	if in.PrevOut.Index, err = r.u16(); err != nil {
		return in, err
	}

	ownerRaw, err := r.take(types.AddressHashSize)
	if err != nil {
		return in, err
	}
	if in.Owner, err = types.NewAddress(types.KindTransfer, ownerRaw); err != nil {
		return in, err
	}

	if in.Amount, err = r.u64(); err != nil {
		return in, err
	}

	sigLen, err := r.u32()
	if err != nil {
		return in, err
	}
	sig, err := r.take(int(sigLen))
	if err != nil {
		return in, err
	}
	in.Signature = append([]byte(nil), sig...)

	pub, err := r.take(types.ViewKeySize)
	if err != nil {
		return in, err
	}
	in.PubKey = append([]byte(nil), pub...)

	return in, nil
}

// readViewKeys parses the view-key list.
func readViewKeys(r *reader) ([][]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	vks := make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		vk, err := r.take(types.ViewKeySize)
		if err != nil {
			return nil, err
		}
		vks = append(vks, append([]byte(nil), vk...))
	}
	return vks, nil
}

// DecodeTransferTx parses the canonical wire encoding produced by
// Builder.Complete.
func DecodeTransferTx(wire []byte) (*TransferTx, error) {
	r := &reader{buf: wire}

	network, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	out := &TransferTx{Network: types.Network(network)}

	nIn, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	for i := uint32(0); i < nIn; i++ {
		in, err := readSignedInput(r)
		if err != nil {
			return nil, fmt.Errorf("decode transfer input %d: %w", i, err)
		}
		out.Inputs = append(out.Inputs, in)
	}

	nOut, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	for i := uint32(0); i < nOut; i++ {
		destRaw, err := r.take(types.AddressHashSize)
		if err != nil {
			return nil, fmt.Errorf("decode transfer output %d: %w", i, err)
		}
		dest, err := types.NewAddress(types.KindTransfer, destRaw)
		if err != nil {
			return nil, fmt.Errorf("decode transfer output %d: %w", i, err)
		}
		amount, err := r.u64()
		if err != nil {
			return nil, fmt.Errorf("decode transfer output %d: %w", i, err)
		}
		out.Outputs = append(out.Outputs, Output{Dest: dest, Amount: amount})
	}

	if out.ViewKeys, err = readViewKeys(r); err != nil {
		return nil, fmt.Errorf("decode transfer view keys: %w", err)
	}
	if err := r.done(); err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	return out, nil
}

// DecodeDepositTx parses the canonical wire encoding produced by
// DepositBuilder.Complete.
func DecodeDepositTx(wire []byte) (*DepositTx, error) {
	r := &reader{buf: wire}

	tag, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}
	if tag != TagDeposit {
		return nil, fmt.Errorf("decode deposit: wrong tag 0x%02x", tag)
	}

	network, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}
	out := &DepositTx{Network: types.Network(network)}

	toRaw, err := r.take(types.AddressHashSize)
	if err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}
	if out.To, err = types.NewAddress(types.KindStaking, toRaw); err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}

	nIn, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}
	for i := uint32(0); i < nIn; i++ {
		in, err := readSignedInput(r)
		if err != nil {
			return nil, fmt.Errorf("decode deposit input %d: %w", i, err)
		}
		out.Inputs = append(out.Inputs, in)
	}

	if err := r.done(); err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}
	return out, nil
}
