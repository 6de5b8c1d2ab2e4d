package storage

import (
	"context"
	"encoding/json"

	"minihub/internal/domain"

	"github.com/sirupsen/logrus"
)

// Slices reads and writes JSON encoded state slices. Missing or unreadable
// entries are reported as absent so callers fall back to defaults.
type Slices struct {
	kv  domain.KVStore
	log *logrus.Logger
}

func NewSlices(kv domain.KVStore, logger *logrus.Logger) *Slices {
	return &Slices{kv: kv, log: logger}
}

// Load decodes key into dst and reports whether dst was filled.
func (s *Slices) Load(ctx context.Context, key string, dst interface{}) bool {
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).Warnf("Repository: could not read saved %s, using defaults", key)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.WithError(err).Warnf("Repository: saved %s is malformed, using defaults", key)
		return false
	}
	return true
}

func (s *Slices) Save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, data)
}

func (s *Slices) Remove(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key)
}
