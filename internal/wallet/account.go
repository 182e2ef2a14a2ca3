package wallet

import "github.com/crest-chain/crest-wallet/pkg/types"

// Account represents a derived wallet account.
type Account struct {
	Kind    types.AddressKind
	Index   uint32
	Name    string
	Address types.Address
}
