package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/crest-chain/crest-wallet/pkg/types"
)

// pendingPrefix namespaces cached ciphertexts inside the store.
var pendingPrefix = []byte("pending/")

func pendingKey(id types.Hash) []byte {
	return append(append([]byte{}, pendingPrefix...), id[:]...)
}

func (p *Pipeline) storePending(id types.Hash, ciphertext []byte) error {
	rec := pendingRecord{
		ID:         id,
		Ciphertext: ciphertext,
		StoredAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal pending record: %w", err)
	}
	return p.store.Put(pendingKey(id), data)
}

func (p *Pipeline) clearPending(id types.Hash) error {
	return p.store.Delete(pendingKey(id))
}

func (p *Pipeline) listPending() ([]pendingRecord, error) {
	var out []pendingRecord
	err := p.store.ForEach(pendingPrefix, func(key, value []byte) error {
		var rec pendingRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("parse pending record %x: %w", key, err)
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
