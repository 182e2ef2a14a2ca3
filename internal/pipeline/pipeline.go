// Package pipeline drives the submission path for confidential transfers:
// a fully signed transaction is sent to the transaction query service for
// encryption, the resulting ciphertext is cached locally, and the payload
// is broadcast to a node. Staking transactions are public and skip the
// encryption hop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crest-chain/crest-wallet/internal/log"
	"github.com/crest-chain/crest-wallet/internal/storage"
	"github.com/crest-chain/crest-wallet/pkg/crypto"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

// Sentinel errors for submission outcomes.
var (
	// ErrUserCancelled is returned when the progress callback or the
	// context stops a submission before encryption finishes. Nothing has
	// been broadcast when this is returned.
	ErrUserCancelled = errors.New("submission cancelled")

	// ErrEncryptionService is returned when the encryption service fails
	// or returns an unusable payload. Nothing has been broadcast.
	ErrEncryptionService = errors.New("encryption service failure")
)

// BroadcastError reports a failed broadcast of an already-encrypted
// payload. The ciphertext is retained locally and in the error so the
// caller can retry without re-encrypting.
type BroadcastError struct {
	ID         types.Hash
	Ciphertext []byte
	Err        error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast of %s failed: %v", e.ID, e.Err)
}

func (e *BroadcastError) Unwrap() error {
	return e.Err
}

// Progress reports encryption progress in the range [start, end]. Returning
// false stops the submission; it is checked at least once per received
// segment.
type Progress func(current, start, end uint64) bool

// Oracle encrypts a signed transfer transaction remotely.
type Oracle interface {
	Encrypt(ctx context.Context, network types.Network, signedTx []byte, progress Progress) ([]byte, error)
}

// Broadcaster submits finished payloads to a node's mempool.
type Broadcaster interface {
	BroadcastTx(ctx context.Context, tx []byte) error
}

// pendingRecord is the stored form of a not-yet-broadcast ciphertext.
type pendingRecord struct {
	ID         types.Hash
	Ciphertext []byte
	StoredAt   time.Time
}

// SubmitOptions controls a transfer submission.
type SubmitOptions struct {
	// Broadcast submits the ciphertext to the node after encryption.
	// When false the ciphertext is only cached and returned.
	Broadcast bool
	// Progress, if non-nil, receives encryption progress updates.
	Progress Progress
}

// Result reports a completed submission.
type Result struct {
	// ID identifies the submission: BLAKE3 of the signed plaintext.
	ID types.Hash
	// Ciphertext is the encrypted payload as produced by the oracle.
	Ciphertext []byte
	// Broadcast is true if the payload reached the node.
	Broadcast bool
}

// Pipeline coordinates encryption, local caching and broadcast.
type Pipeline struct {
	oracle Oracle
	node   Broadcaster
	store  storage.DB
}

// New builds a pipeline. The store holds the pending-broadcast cache and
// should be namespaced by the caller (see storage.NewPrefixDB).
func New(oracle Oracle, node Broadcaster, store storage.DB) *Pipeline {
	return &Pipeline{oracle: oracle, node: node, store: store}
}

// SubmitTransfer encrypts a fully signed transfer and, when requested,
// broadcasts the ciphertext. The ciphertext is cached locally before any
// broadcast attempt so a failed broadcast can be retried without another
// encryption round trip.
func (p *Pipeline) SubmitTransfer(ctx context.Context, signedTx []byte, opts SubmitOptions) (*Result, error) {
	id := crypto.Hash(signedTx)

	ciphertext, err := p.encrypt(ctx, signedTx, opts.Progress)
	if err != nil {
		return nil, err
	}

	if err := p.storePending(id, ciphertext); err != nil {
		return nil, fmt.Errorf("cache ciphertext: %w", err)
	}
	log.Pipeline.Debug().Stringer("id", id).Int("size", len(ciphertext)).Msg("ciphertext cached")

	res := &Result{ID: id, Ciphertext: ciphertext}
	if !opts.Broadcast {
		return res, nil
	}

	if err := p.node.BroadcastTx(ctx, ciphertext); err != nil {
		log.Pipeline.Warn().Stringer("id", id).Err(err).Msg("broadcast failed, ciphertext retained")
		return nil, &BroadcastError{ID: id, Ciphertext: ciphertext, Err: err}
	}

	if err := p.clearPending(id); err != nil {
		log.Pipeline.Warn().Stringer("id", id).Err(err).Msg("clearing pending entry failed")
	}
	res.Broadcast = true
	return res, nil
}

// SubmitStaking broadcasts a sealed staking transaction. Staking state is
// public, so there is no encryption hop.
func (p *Pipeline) SubmitStaking(ctx context.Context, signedTx []byte) (*Result, error) {
	id := crypto.Hash(signedTx)
	if err := p.node.BroadcastTx(ctx, signedTx); err != nil {
		return nil, &BroadcastError{ID: id, Ciphertext: signedTx, Err: err}
	}
	return &Result{ID: id, Ciphertext: signedTx, Broadcast: true}, nil
}

// RetryBroadcast re-sends every cached ciphertext whose broadcast never
// succeeded. Successfully sent entries are cleared; the first failure
// aborts the sweep.
func (p *Pipeline) RetryBroadcast(ctx context.Context) (int, error) {
	pending, err := p.listPending()
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}

	sent := 0
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := p.node.BroadcastTx(ctx, rec.Ciphertext); err != nil {
			return sent, &BroadcastError{ID: rec.ID, Ciphertext: rec.Ciphertext, Err: err}
		}
		if err := p.clearPending(rec.ID); err != nil {
			return sent, fmt.Errorf("clear pending %s: %w", rec.ID, err)
		}
		sent++
		log.Pipeline.Info().Stringer("id", rec.ID).Msg("pending ciphertext broadcast")
	}
	return sent, nil
}

// PendingCount reports how many ciphertexts await broadcast.
func (p *Pipeline) PendingCount() (int, error) {
	pending, err := p.listPending()
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

func (p *Pipeline) encrypt(ctx context.Context, signedTx []byte, progress Progress) ([]byte, error) {
	// The oracle checks progress per segment; wrap so ctx cancellation
	// also stops the stream.
	stopped := false
	wrapped := func(current, start, end uint64) bool {
		if ctx.Err() != nil {
			stopped = true
			return false
		}
		if progress != nil && !progress(current, start, end) {
			stopped = true
			return false
		}
		return true
	}

	ciphertext, err := p.oracle.Encrypt(ctx, p.networkOf(signedTx), signedTx, wrapped)
	if stopped {
		return nil, ErrUserCancelled
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrUserCancelled
		}
		return nil, fmt.Errorf("%w: %v", ErrEncryptionService, err)
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrEncryptionService)
	}
	return ciphertext, nil
}

// networkOf reads the network byte out of a signed transfer payload.
func (p *Pipeline) networkOf(signedTx []byte) types.Network {
	if len(signedTx) == 0 {
		return 0
	}
	return types.Network(signedTx[0])
}
