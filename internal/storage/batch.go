package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"loan-agent/internal/loan"

	"go.etcd.io/bbolt"
)

// Batch stages a cycle's worth of status updates and decision inserts in
// memory and commits them in a single BoltDB transaction. Nothing is visible
// to readers until Commit returns; a crash before Commit loses the whole
// batch rather than leaving it half-applied.
type Batch struct {
	store     *Store
	statuses  map[string]loan.Status
	decisions []loan.Decision
}

// NewBatch starts an empty write batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{
		store:    s,
		statuses: make(map[string]loan.Status),
	}
}

// SetStatus stages a status update for an application.
func (b *Batch) SetStatus(appID string, status loan.Status) {
	b.statuses[appID] = status
}

// InsertDecision stages a decision record. A zero CreatedAt is stamped at
// commit time.
func (b *Batch) InsertDecision(dec loan.Decision) {
	b.decisions = append(b.decisions, dec)
}

// Len returns the number of staged operations.
func (b *Batch) Len() int {
	return len(b.statuses) + len(b.decisions)
}

// Commit applies all staged operations atomically. The batch can be reused
// after a failed commit; after a successful one it is empty.
func (b *Batch) Commit() error {
	if b.Len() == 0 {
		return nil
	}

	err := b.store.db.Update(func(tx *bbolt.Tx) error {
		apps := tx.Bucket([]byte(applicationsBucket))
		for id, status := range b.statuses {
			data := apps.Get([]byte(id))
			if data == nil {
				return fmt.Errorf("application %s not found", id)
			}
			var app loan.Application
			if err := json.Unmarshal(data, &app); err != nil {
				return fmt.Errorf("unmarshal application %s: %w", id, err)
			}
			app.Status = status
			updated, err := json.Marshal(app)
			if err != nil {
				return fmt.Errorf("marshal application %s: %w", id, err)
			}
			if err := apps.Put([]byte(id), updated); err != nil {
				return err
			}
		}

		decs := tx.Bucket([]byte(decisionsBucket))
		for i := range b.decisions {
			dec := b.decisions[i]
			if dec.CreatedAt.IsZero() {
				dec.CreatedAt = time.Now().UTC()
			}
			data, err := json.Marshal(dec)
			if err != nil {
				return fmt.Errorf("marshal decision: %w", err)
			}
			// The index suffix keeps keys unique when a batch carries
			// several decisions for one application in the same nanosecond.
			key := fmt.Sprintf("%s_%d_%d", dec.ApplicationID, dec.CreatedAt.UnixNano(), i)
			if err := decs.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.statuses = make(map[string]loan.Status)
	b.decisions = nil
	return nil
}
