// Package identity persists the engine's device identifier, grounded on
// the teacher's internal/pairing.Service file-store pattern: a
// mutex-guarded struct that reads its JSON file on each resolve and
// writes it in place when a new id is created.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is the on-disk shape of a persisted device identity.
type Record struct {
	DeviceID  string `json:"deviceId"`
	CreatedAt string `json:"createdAt"` // RFC3339
}

// Store resolves and persists a single UUID-v4 device identifier.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store backed by the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// ResolveOrCreate reads the persisted device id, or generates and persists
// a fresh UUID-v4 on first use. Concurrent-safe.
func (s *Store) ResolveOrCreate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err == nil {
		var rec Record
		if jsonErr := json.Unmarshal(data, &rec); jsonErr == nil && rec.DeviceID != "" {
			return rec.DeviceID, nil
		}
	}

	rec := Record{
		DeviceID:  uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.write(rec); err != nil {
		return "", fmt.Errorf("identity: failed to persist device id: %w", err)
	}
	return rec.DeviceID, nil
}

func (s *Store) write(rec Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
