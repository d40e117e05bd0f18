// Package storage persists analysis results. The only implementation is
// a JSON file store: simple enough to diff and hand-edit, durable enough
// for a batch pipeline that writes once per run.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

var _ ports.RecordStore = (*JSONStore)(nil)

// JSONStore implements ports.RecordStore on a single JSON file mapping
// normalized company keys to records. Merge is read-modify-write with an
// atomic rename, so a crash mid-write never corrupts the previous file
// and keys outside the current run are never touched.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewJSONStore creates a store backed by the file at path. The file does
// not need to exist yet.
func NewJSONStore(path string, logger *zap.Logger) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("store path cannot be empty")
	}
	return &JSONStore{path: path, logger: logger}, nil
}

// Load implements ports.RecordStore.
func (s *JSONStore) Load(ctx context.Context) (map[string]domain.CompanyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *JSONStore) loadLocked() (map[string]domain.CompanyRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.CompanyRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading record store %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return map[string]domain.CompanyRecord{}, nil
	}

	var records map[string]domain.CompanyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding record store %s: %w", s.path, err)
	}
	if records == nil {
		records = map[string]domain.CompanyRecord{}
	}
	return records, nil
}

// Merge implements ports.RecordStore. Existing records for other keys are
// carried over unchanged; records for the given keys are replaced whole.
func (s *JSONStore) Merge(ctx context.Context, records map[string]domain.CompanyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked()
	if err != nil {
		return err
	}
	for key, record := range records {
		existing[key] = record
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing record store %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Info("record store updated",
			zap.String("path", s.path),
			zap.Int("merged", len(records)),
			zap.Int("total", len(existing)))
	}
	return nil
}
