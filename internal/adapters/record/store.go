package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// FileStore persists one deployment record per network as JSON under the
// project's data directory.
type FileStore struct {
	dataDir string

	mu sync.Mutex
	// snapshots holds the serialized content last read or written per
	// network; Write skips the file when the record still serializes to it.
	snapshots map[string][]byte
}

// NewFileStore creates a record store rooted at the project's data directory
func NewFileStore(cfg *config.RuntimeConfig) (*FileStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{
		dataDir:   cfg.DataDir,
		snapshots: make(map[string][]byte),
	}, nil
}

// Path returns the record file path for a network.
func (s *FileStore) Path(network string) string {
	return filepath.Join(s.dataDir, network+".json")
}

// Load reads the record for a network. The first reconciliation of a network
// starts from an empty record at the current schema version.
func (s *FileStore) Load(ctx context.Context, network string) (*models.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(network))
	if os.IsNotExist(err) {
		record := models.NewDeploymentRecord(network)
		s.snapshots[network] = nil
		return record, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment record for %s: %w", network, err)
	}

	var record models.DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse deployment record for %s: %w", network, err)
	}
	record.Network = network
	record.Normalize()

	// Snapshot the canonical serialization, not the raw file bytes, so
	// formatting-only differences don't count as changes.
	snapshot, err := marshalRecord(&record)
	if err != nil {
		return nil, err
	}
	s.snapshots[network] = snapshot

	return &record, nil
}

// Write persists the record if its content changed since Load. Unchanged
// records skip the file entirely, which keeps repeated reconciliation runs
// idempotent on disk.
func (s *FileStore) Write(ctx context.Context, record *models.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	if prev, ok := s.snapshots[record.Network]; ok && bytes.Equal(prev, data) {
		return nil
	}

	path := s.Path(record.Network)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write deployment record for %s: %w", record.Network, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write deployment record for %s: %w", record.Network, err)
	}

	s.snapshots[record.Network] = data
	return nil
}

func marshalRecord(record *models.DeploymentRecord) ([]byte, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize deployment record: %w", err)
	}
	return data, nil
}
