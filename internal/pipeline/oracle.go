package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crest-chain/crest-wallet/internal/log"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

// errStopped marks an encryption stream the caller aborted.
var errStopped = errors.New("stream stopped by caller")

// WSOracle talks to the transaction query service over a websocket. Each
// Encrypt call opens a fresh connection; the service streams the ciphertext
// back in segments so large payloads can report progress.
type WSOracle struct {
	url     string
	dialer  websocket.Dialer
	timeout time.Duration
}

// NewWSOracle builds an oracle client for the given websocket URL.
func NewWSOracle(url string) *WSOracle {
	return &WSOracle{
		url:     url,
		dialer:  websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		timeout: 60 * time.Second,
	}
}

// encryptRequest asks the service to encrypt a signed transfer.
type encryptRequest struct {
	Network uint8  `json:"network"`
	Tx      []byte `json:"tx"`
}

// encryptSegment is one chunk of the streamed ciphertext.
type encryptSegment struct {
	Seq   uint64 `json:"seq"`
	Total uint64 `json:"total"`
	Chunk []byte `json:"chunk"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// Encrypt sends the signed transaction and assembles the streamed
// ciphertext, reporting progress once per received segment. A false
// progress return abandons the stream.
func (o *WSOracle) Encrypt(ctx context.Context, network types.Network, signedTx []byte, progress Progress) ([]byte, error) {
	conn, _, err := o.dialer.DialContext(ctx, o.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial oracle %s: %w", o.url, err)
	}
	defer conn.Close()

	// Cancel the read loop when ctx is done.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	req := encryptRequest{Network: uint8(network), Tx: signedTx}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send encrypt request: %w", err)
	}

	var ciphertext []byte
	for {
		if err := conn.SetReadDeadline(time.Now().Add(o.timeout)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}

		var seg encryptSegment
		if err := conn.ReadJSON(&seg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read segment: %w", err)
		}
		if seg.Error != "" {
			return nil, fmt.Errorf("oracle: %s", seg.Error)
		}

		ciphertext = append(ciphertext, seg.Chunk...)

		if progress != nil && !progress(seg.Seq, 0, seg.Total) {
			log.Pipeline.Debug().Uint64("seq", seg.Seq).Msg("encryption stream stopped")
			return nil, errStopped
		}

		if seg.Done {
			return ciphertext, nil
		}
	}
}
