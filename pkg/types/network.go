package types

import "fmt"

// Network identifies which Crest chain a transaction targets. The id byte is
// bound into every signed payload so a transaction for one network is invalid
// on the others.
type Network uint8

const (
	Mainnet Network = 0x2a
	Testnet Network = 0x42
	Devnet  Network = 0xab
)

// ParseNetwork converts a network name to its Network id.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	case "devnet":
		return Devnet, nil
	}
	return 0, fmt.Errorf("unknown network %q", s)
}

// String returns the network name, or the raw id in hex for unknown networks.
func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Devnet:
		return "devnet"
	}
	return fmt.Sprintf("network(0x%02x)", uint8(n))
}

// hrpTable maps (network, kind) to the bech32 human-readable part.
var hrpTable = map[Network]map[AddressKind]string{
	Mainnet: {
		KindTransfer: "cst",
		KindStaking:  "csts",
		KindView:     "cstv",
	},
	Testnet: {
		KindTransfer: "tcst",
		KindStaking:  "tcsts",
		KindView:     "tcstv",
	},
	Devnet: {
		KindTransfer: "dcst",
		KindStaking:  "dcsts",
		KindView:     "dcstv",
	},
}

// HRP returns the bech32 human-readable part for an address kind on this network.
func (n Network) HRP(kind AddressKind) (string, error) {
	kinds, ok := hrpTable[n]
	if !ok {
		return "", fmt.Errorf("unknown network %s", n)
	}
	hrp, ok := kinds[kind]
	if !ok {
		return "", fmt.Errorf("unknown address kind %d", kind)
	}
	return hrp, nil
}

// kindFromHRP reverses the HRP table. Returns the network and kind an HRP
// belongs to.
func kindFromHRP(hrp string) (Network, AddressKind, bool) {
	for net, kinds := range hrpTable {
		for kind, h := range kinds {
			if h == hrp {
				return net, kind, true
			}
		}
	}
	return 0, 0, false
}
