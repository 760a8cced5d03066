// Package storage provides persistent data storage for the loan underwriting
// agent. It uses BoltDB as the underlying storage engine to store loan
// applications and the decisions recorded against them.
//
// The package provides thread-safe operations for submitting applications,
// scanning the pending backlog, and committing a cycle's worth of status
// updates and decisions as a single transaction.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"loan-agent/internal/loan"

	"go.etcd.io/bbolt"
)

const (
	applicationsBucket = "applications" // Bucket for application records, keyed by ID
	decisionsBucket    = "decisions"    // Bucket for decision records, keyed by "appID_timestamp"
)

// Store provides persistent storage for underwriting data using BoltDB.
type Store struct {
	db *bbolt.DB
}

// Summary aggregates application counts for the dashboard surface.
type Summary struct {
	Total    int     `json:"total"`
	Approved int     `json:"approved"`
	Rejected int     `json:"rejected"`
	Pending  int     `json:"pending"`
	Rate     float64 `json:"approval_rate"` // percent of total
}

// New creates a new storage instance rooted at the specified data path.
// It initializes the BoltDB database and creates the necessary buckets.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "loan-agent.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(applicationsBucket)); err != nil {
			return fmt.Errorf("create applications bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(decisionsBucket)); err != nil {
			return fmt.Errorf("create decisions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SubmitApplication stores a new application. An empty ID is assigned from
// the bucket sequence; an empty status defaults to Pending. Returns the
// stored application's ID.
func (s *Store) SubmitApplication(app loan.Application) (string, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(applicationsBucket))

		if app.ID == "" {
			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("next application id: %w", err)
			}
			app.ID = fmt.Sprintf("%012d", seq)
		}
		if app.Status == "" {
			app.Status = loan.StatusPending
		}
		if app.SubmittedAt.IsZero() {
			app.SubmittedAt = time.Now().UTC()
		}

		data, err := json.Marshal(app)
		if err != nil {
			return fmt.Errorf("marshal application: %w", err)
		}
		return b.Put([]byte(app.ID), data)
	})
	if err != nil {
		return "", err
	}
	return app.ID, nil
}

// GetApplication fetches a single application by ID.
func (s *Store) GetApplication(id string) (loan.Application, error) {
	var app loan.Application
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(applicationsBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("application %s not found", id)
		}
		return json.Unmarshal(data, &app)
	})
	return app, err
}

// FetchPending returns every application still in Pending status, in key
// order. No pagination: backlog sizes are expected to stay small, and the
// inference loop consumes the whole set each cycle.
func (s *Store) FetchPending() ([]loan.Application, error) {
	var pending []loan.Application

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(applicationsBucket)).ForEach(func(_, v []byte) error {
			var app loan.Application
			if err := json.Unmarshal(v, &app); err != nil {
				return nil // skip malformed records
			}
			if app.Status == loan.StatusPending {
				pending = append(pending, app)
			}
			return nil
		})
	})

	return pending, err
}

// CountPending returns the number of applications awaiting a decision.
func (s *Store) CountPending() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(applicationsBucket)).ForEach(func(_, v []byte) error {
			var app loan.Application
			if err := json.Unmarshal(v, &app); err != nil {
				return nil
			}
			if app.Status == loan.StatusPending {
				count++
			}
			return nil
		})
	})
	return count, err
}

// LatestDecision returns the most recent decision recorded for an
// application, if any. Decision keys are "appID_unixnano", so the last key
// under the prefix is the newest.
func (s *Store) LatestDecision(appID string) (loan.Decision, bool, error) {
	var dec loan.Decision
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(decisionsBucket)).Cursor()
		prefix := []byte(appID + "_")

		var last []byte
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			last = v
		}
		if last == nil {
			return nil
		}
		if err := json.Unmarshal(last, &dec); err != nil {
			return fmt.Errorf("unmarshal decision: %w", err)
		}
		found = true
		return nil
	})

	return dec, found, err
}

// DecisionsBySource returns all decisions carrying the given source tag.
func (s *Store) DecisionsBySource(source string) ([]loan.Decision, error) {
	var decisions []loan.Decision

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(decisionsBucket)).ForEach(func(_, v []byte) error {
			var dec loan.Decision
			if err := json.Unmarshal(v, &dec); err != nil {
				return nil
			}
			if dec.Source == source {
				decisions = append(decisions, dec)
			}
			return nil
		})
	})

	return decisions, err
}

// Decided returns all applications that have reached a terminal status.
func (s *Store) Decided() ([]loan.Application, error) {
	var decided []loan.Application

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(applicationsBucket)).ForEach(func(_, v []byte) error {
			var app loan.Application
			if err := json.Unmarshal(v, &app); err != nil {
				return nil
			}
			if app.Status == loan.StatusApproved || app.Status == loan.StatusRejected {
				decided = append(decided, app)
			}
			return nil
		})
	})

	return decided, err
}

// Summarize aggregates application counts by status.
func (s *Store) Summarize() (Summary, error) {
	var sum Summary
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(applicationsBucket)).ForEach(func(_, v []byte) error {
			var app loan.Application
			if err := json.Unmarshal(v, &app); err != nil {
				return nil
			}
			sum.Total++
			switch app.Status {
			case loan.StatusApproved:
				sum.Approved++
			case loan.StatusRejected:
				sum.Rejected++
			case loan.StatusPending:
				sum.Pending++
			}
			return nil
		})
	})
	if err != nil {
		return Summary{}, err
	}
	if sum.Total > 0 {
		sum.Rate = float64(sum.Approved) / float64(sum.Total) * 100
	}
	return sum, nil
}
