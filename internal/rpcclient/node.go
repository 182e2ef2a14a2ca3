package rpcclient

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/crest-chain/crest-wallet/pkg/types"
)

// Caller abstracts a JSON-RPC transport. Both the one-shot HTTP client
// and the persistent websocket client satisfy it.
type Caller interface {
	Call(ctx context.Context, method string, params, result interface{}) error
}

// httpCaller adapts the HTTP client to the Caller interface.
type httpCaller struct{ c *Client }

func (h httpCaller) Call(ctx context.Context, method string, params, result interface{}) error {
	return h.c.CallContext(ctx, method, params, result)
}

// AsCaller wraps the HTTP client as a Caller.
func (c *Client) AsCaller() Caller {
	return httpCaller{c: c}
}

// NodeClient exposes the node RPC surface the wallet needs.
type NodeClient struct {
	rpc Caller
}

// NewNodeClient builds a node facade over any JSON-RPC transport.
func NewNodeClient(rpc Caller) *NodeClient {
	return &NodeClient{rpc: rpc}
}

// NodeStatus is the subset of node status the wallet cares about.
type NodeStatus struct {
	NetworkID   string `json:"network_id"`
	BlockHeight uint64 `json:"block_height"`
	Syncing     bool   `json:"syncing"`
}

// Status queries the node's sync state.
func (n *NodeClient) Status(ctx context.Context) (*NodeStatus, error) {
	var status NodeStatus
	if err := n.rpc.Call(ctx, "chain_status", nil, &status); err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}
	return &status, nil
}

// GetStakedState fetches the on-chain staking account for a bech32 staking
// address. The returned nonce feeds the next staking operation.
func (n *NodeClient) GetStakedState(ctx context.Context, addr string) (*types.StakedState, error) {
	params := struct {
		Address string `json:"address"`
	}{Address: addr}

	var state types.StakedState
	if err := n.rpc.Call(ctx, "staking_state", params, &state); err != nil {
		return nil, fmt.Errorf("query staked state for %s: %w", addr, err)
	}
	return &state, nil
}

// BroadcastTx submits a finished transaction payload to the node's mempool.
func (n *NodeClient) BroadcastTx(ctx context.Context, tx []byte) error {
	params := struct {
		Tx string `json:"tx"`
	}{Tx: base64.StdEncoding.EncodeToString(tx)}

	if err := n.rpc.Call(ctx, "broadcast_tx", params, nil); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	return nil
}

// unspentOutput is the wire form of a spendable output.
type unspentOutput struct {
	TxID   types.Hash `json:"txid"`
	Index  uint16     `json:"index"`
	Owner  string     `json:"owner"`
	Amount uint64     `json:"amount"`
}

// UnspentOutput is a spendable output reported by the node, with the owner
// address decoded.
type UnspentOutput struct {
	Outpoint types.Outpoint
	Owner    types.Address
	Amount   uint64
}

// ListUnspent fetches the spendable outputs of a transfer address.
func (n *NodeClient) ListUnspent(ctx context.Context, network types.Network, addr string) ([]UnspentOutput, error) {
	params := struct {
		Address string `json:"address"`
	}{Address: addr}

	var raw []unspentOutput
	if err := n.rpc.Call(ctx, "list_unspent", params, &raw); err != nil {
		return nil, fmt.Errorf("list unspent for %s: %w", addr, err)
	}

	out := make([]UnspentOutput, 0, len(raw))
	for _, u := range raw {
		owner, err := types.DecodeAddressFor(u.Owner, network, types.KindTransfer)
		if err != nil {
			return nil, fmt.Errorf("decode owner %s: %w", u.Owner, err)
		}
		out = append(out, UnspentOutput{
			Outpoint: types.Outpoint{TxID: u.TxID, Index: u.Index},
			Owner:    owner,
			Amount:   u.Amount,
		})
	}
	return out, nil
}
