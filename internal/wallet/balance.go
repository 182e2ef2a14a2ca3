package wallet

// Balance summarizes the spendable value of a set of UTXOs.
type Balance struct {
	Confirmed   uint64
	Unconfirmed uint64
}

// Total returns confirmed plus unconfirmed value.
func (b Balance) Total() uint64 {
	return b.Confirmed + b.Unconfirmed
}

// SumUTXOs computes the confirmed balance of a UTXO set.
func SumUTXOs(utxos []UTXO) Balance {
	var b Balance
	for _, u := range utxos {
		b.Confirmed += u.Value
	}
	return b
}
