package filer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/parvezamm3/receipt-agent/internal/fields"
)

// MasterLog is the durable map from generated filing name to its receipt
// record. Writes are read-modify-write under a single-writer mutex and land
// via temp-file + rename, so readers never observe a partial file. An
// unreadable or corrupt log is replaced with a fresh map rather than failing
// a filing: availability over durability, per the log's contract.
type MasterLog struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

func NewMasterLog(path string, logger *slog.Logger) *MasterLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &MasterLog{path: path, logger: logger}
}

// Path returns the on-disk location of the log.
func (m *MasterLog) Path() string { return m.path }

// Put records rec under name and persists the full map.
func (m *MasterLog) Put(name string, rec fields.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.loadLocked()
	entries[name] = rec
	return m.writeLocked(entries)
}

// Load returns the current contents of the log.
func (m *MasterLog) Load() map[string]fields.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked()
}

func (m *MasterLog) loadLocked() map[string]fields.Record {
	entries := make(map[string]fields.Record)
	b, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("filer.masterlog.unreadable", "path", m.path, "error", err)
		}
		return entries
	}
	if len(b) == 0 {
		return entries
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		m.logger.Warn("filer.masterlog.corrupt", "path", m.path, "error", err)
		return make(map[string]fields.Record)
	}
	return entries
}

func (m *MasterLog) writeLocked(entries map[string]fields.Record) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal master log: %w", err)
	}

	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".masterlog-*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace master log: %w", err)
	}
	return nil
}
