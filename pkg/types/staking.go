package types

// StakedState is a chain-reported snapshot of a staking account: bonded and
// unbonded balances plus the anti-replay nonce. The wallet never mutates it;
// staking-transaction construction consumes the nonce and lets callers
// validate amounts against bonded/unbonded before submission.
type StakedState struct {
	Nonce        uint64 `json:"nonce"`
	Bonded       uint64 `json:"bonded"`
	Unbonded     uint64 `json:"unbonded"`
	UnbondedFrom uint64 `json:"unbonded_from"`
}
