package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/memodeck/memodeck/internal/domain"
)

// Manager maps usernames to their storage partitions. Each user gets one
// sqlite file under the data directory, created lazily on first access and
// kept open for reuse.
type Manager struct {
	dataDir string

	mu   sync.Mutex
	open map[string]*Partition
}

// NewManager creates a partition manager rooted at dataDir.
func NewManager(dataDir string) *Manager {
	return &Manager{
		dataDir: dataDir,
		open:    make(map[string]*Partition),
	}
}

// PartitionFor returns the partition owned by username, opening and
// initialising it on first use. Idempotent: later calls return the same
// handle.
func (m *Manager) PartitionFor(username string) (*Partition, error) {
	if !validPartitionName(username) {
		return nil, fmt.Errorf("%w: invalid username %q", domain.ErrValidation, username)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.open[username]; ok {
		return p, nil
	}

	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", domain.ErrStorageUnavailable, err)
	}

	p, err := Open(filepath.Join(m.dataDir, username+"_decks.db"))
	if err != nil {
		return nil, err
	}
	m.open[username] = p
	return p, nil
}

// Close closes every open partition.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, p := range m.open {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close partition %s: %w", name, err)
		}
		delete(m.open, name)
	}
	return firstErr
}

// validPartitionName rejects usernames that cannot safely name a file.
func validPartitionName(name string) bool {
	if name == "" || name != strings.TrimSpace(name) {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}
