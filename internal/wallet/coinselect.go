package wallet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/crest-chain/crest-wallet/pkg/types"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoUTXOs           = errors.New("no UTXOs available")
)

// UTXO is an unspent output the wallet can sign for. Owner decides which
// derived key signs the input when the UTXO is spent.
type UTXO struct {
	Outpoint types.Outpoint
	Owner    types.Address
	Value    uint64
}

// CoinSelection is a funded input set for a transfer.
type CoinSelection struct {
	Inputs []UTXO
	Total  uint64 // sum over Inputs
	Change uint64 // Total - target
}

// SelectCoins picks spendable outputs worth at least target. Two candidate
// sets are formed: the smallest single output that covers the target, and a
// largest-first accumulation. The one leaving less change wins, which keeps
// the encrypted payload small without stranding dust.
func SelectCoins(utxos []UTXO, target uint64) (*CoinSelection, error) {
	if len(utxos) == 0 {
		return nil, ErrNoUTXOs
	}
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	candidates := spendable(utxos)
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Value < candidates[j].Value
	})

	single := smallestCovering(candidates, target)
	accum := accumulateLargest(candidates, target)

	switch {
	case single != nil && accum != nil:
		if single.Change <= accum.Change {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	}

	var have uint64
	for _, u := range candidates {
		have += u.Value
	}
	return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, have, target)
}

// spendable drops zero-value outputs; they cost an input signature and
// fund nothing.
func spendable(utxos []UTXO) []UTXO {
	out := make([]UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Value > 0 {
			out = append(out, u)
		}
	}
	return out
}

// smallestCovering returns the cheapest one-input funding, or nil when no
// single output covers the target. Candidates must be sorted ascending.
func smallestCovering(candidates []UTXO, target uint64) *CoinSelection {
	for _, u := range candidates {
		if u.Value >= target {
			return &CoinSelection{
				Inputs: []UTXO{u},
				Total:  u.Value,
				Change: u.Value - target,
			}
		}
	}
	return nil
}

// accumulateLargest folds outputs in from the top of the sorted candidates
// until the target is met, or returns nil when the whole set falls short.
func accumulateLargest(candidates []UTXO, target uint64) *CoinSelection {
	var picked []UTXO
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		picked = append(picked, candidates[i])
		total += candidates[i].Value
		if total >= target {
			return &CoinSelection{Inputs: picked, Total: total, Change: total - target}
		}
	}
	return nil
}
