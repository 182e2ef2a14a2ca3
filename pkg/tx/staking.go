package tx

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/crest-chain/crest-wallet/pkg/crypto"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

// ValidatorKeySize is the raw length of an ed25519 consensus public key.
const ValidatorKeySize = 32

// Staking transactions are one-shot constructions: exactly one signer (the
// staking key) and no input/output list, so there is no multi-step builder.
// Every signature covers (network, nonce, from, to, payload); replaying the
// bytes under a different nonce or network fails signature verification on
// chain, not just in this client.

// stakingPayload assembles the signed prefix shared by all staking kinds.
func stakingPayload(tag byte, network types.Network, nonce uint64, from types.Address) []byte {
	buf := []byte{tag, byte(network)}
	buf = binary.LittleEndian.AppendUint64(buf, nonce)
	buf = append(buf, from.RawBytes()...)
	return buf
}

// sealStaking signs the payload with the staking key and appends the
// signature and public key, producing broadcastable wire bytes.
func sealStaking(payload []byte, from *crypto.KeyPair) ([]byte, error) {
	if from.Kind() != types.KindStaking {
		return nil, types.ErrKindMismatch
	}
	digest := crypto.Hash(payload)
	sig, err := from.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	buf := payload
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(sig)))
	buf = append(buf, sig...)
	buf = append(buf, from.PublicKey()...)
	return buf, nil
}

// Unbond builds a signed staked-to-staked unbond transaction. The nonce must
// be the current StakedState nonce; keeping it current is the caller's
// replay-protection responsibility.
func Unbond(network types.Network, nonce uint64, from *crypto.KeyPair, to types.Address, amount uint64) ([]byte, error) {
	if to.Kind() != types.KindStaking {
		return nil, types.ErrKindMismatch
	}
	payload := stakingPayload(TagUnbond, network, nonce, from.Address())
	payload = append(payload, to.RawBytes()...)
	payload = binary.LittleEndian.AppendUint64(payload, amount)
	return sealStaking(payload, from)
}

// Unjail builds a signed transaction requesting removal of the target
// staking account from the jailed state.
func Unjail(network types.Network, nonce uint64, from *crypto.KeyPair, to types.Address) ([]byte, error) {
	if to.Kind() != types.KindStaking {
		return nil, types.ErrKindMismatch
	}
	payload := stakingPayload(TagUnjail, network, nonce, from.Address())
	payload = append(payload, to.RawBytes()...)
	return sealStaking(payload, from)
}

// NodeJoin builds a signed validator-registration transaction. validatorPubKey
// is the base64 encoding of a raw 32-byte ed25519 consensus key; keyPackage
// carries the opaque attestation blob the chain requires from new validators.
func NodeJoin(network types.Network, nonce uint64, from *crypto.KeyPair, to types.Address,
	name, contact, validatorPubKey string, keyPackage []byte) ([]byte, error) {
	if to.Kind() != types.KindStaking {
		return nil, types.ErrKindMismatch
	}
	valKey, err := base64.StdEncoding.DecodeString(validatorPubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValidatorKey, err)
	}
	if len(valKey) != ValidatorKeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d",
			ErrInvalidValidatorKey, ValidatorKeySize, len(valKey))
	}

	payload := stakingPayload(TagNodeJoin, network, nonce, from.Address())
	payload = append(payload, to.RawBytes()...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(name)))
	payload = append(payload, name...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(contact)))
	payload = append(payload, contact...)
	payload = append(payload, valKey...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(keyPackage)))
	payload = append(payload, keyPackage...)
	return sealStaking(payload, from)
}

// Withdraw builds a signed staked-to-UTXO withdrawal. It consumes the nonce
// and unbonded balance of the supplied staked-state snapshot (fetched by the
// caller from the node) and produces a single transfer output carrying the
// full unbonded amount. View keys attached here let their holders decrypt
// the resulting UTXO's later confidential transfers.
func Withdraw(network types.Network, state *types.StakedState, from *crypto.KeyPair,
	to types.Address, viewKeys []types.Address) ([]byte, error) {
	if to.Kind() != types.KindTransfer {
		return nil, types.ErrKindMismatch
	}
	vks := make([][]byte, 0, len(viewKeys))
	for _, vk := range viewKeys {
		if vk.Kind() != types.KindView {
			return nil, types.ErrKindMismatch
		}
		vks = append(vks, vk.RawBytes())
	}

	payload := stakingPayload(TagWithdraw, network, state.Nonce, from.Address())
	payload = append(payload, to.RawBytes()...)
	payload = binary.LittleEndian.AppendUint64(payload, state.Unbonded)
	payload = appendViewKeys(payload, vks)
	return sealStaking(payload, from)
}
