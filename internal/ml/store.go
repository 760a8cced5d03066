package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ModelStore persists trained networks as JSON weight files under a models
// directory, addressed by a well-known name.
type ModelStore struct {
	dir string
}

// NewModelStore creates the models directory if needed.
func NewModelStore(dir string) (*ModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	return &ModelStore{dir: dir}, nil
}

func (s *ModelStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Exists reports whether a model is persisted under the given name.
func (s *ModelStore) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Load reads a persisted model. It refuses weight files whose trained flag is
// unset: a partially written model must never reach the inference loop.
func (s *ModelStore) Load(name string) (*Network, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", name, err)
	}

	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", name, err)
	}
	if !n.Trained {
		return nil, fmt.Errorf("model %s is not marked trained", name)
	}
	if len(n.W1) != hidden1Size || len(n.W2) != hidden2Size || len(n.W3) != hidden2Size {
		return nil, fmt.Errorf("model %s has unexpected layer shape", name)
	}

	log.Info().Str("model", name).Str("path", s.path(name)).Msg("model loaded")
	return &n, nil
}

// Save writes the model atomically: the weights land in a temp file first and
// are renamed into place, so a crash mid-write never leaves a readable
// half-model under the well-known name.
func (s *ModelStore) Save(n *Network, name string) error {
	if n == nil || !n.Trained {
		return fmt.Errorf("refusing to persist untrained model %s", name)
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal model %s: %w", name, err)
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("rename model %s: %w", name, err)
	}

	log.Info().Str("model", name).Str("path", s.path(name)).Msg("model saved")
	return nil
}
