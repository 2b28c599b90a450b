// Package snapshots persists the latest pipeline run to disk so a restart
// can serve results without waiting for a fresh run.
package snapshots

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/quantfolio/internal/pipeline"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot on disk")

// Store writes run results as msgpack to a single file. Writes go through
// a temp file and rename so a crash mid-write never corrupts the snapshot.
type Store struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewStore creates a snapshot store at the given file path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "snapshots").Logger(),
	}
}

// Save serializes the result and atomically replaces the snapshot file.
func (s *Store) Save(result *pipeline.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.log.Debug().Str("run_id", result.ID).Int("bytes", len(data)).Msg("Snapshot saved")
	return nil
}

// Load reads the snapshot from disk. Returns ErrNoSnapshot when the file
// does not exist.
func (s *Store) Load() (*pipeline.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var result pipeline.RunResult
	if err := msgpack.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &result, nil
}
