// Package syncstate remembers the command fingerprints of the last successful
// submission per scope ("" for global, otherwise a guild ID). The file format
// is a JSON object of scope -> name -> fingerprint.
package syncstate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fingerprints maps a command name to its fingerprint.
type Fingerprints map[string]string

// Config holds configuration options for a Store.
type Config struct {
	FilePath    string // empty keeps state in memory only
	BackupCount int    // number of backup files to keep
	Logger      zerolog.Logger
}

// Store is safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	scopes       map[string]Fingerprints
	cfg          Config
	lastChecksum string
}

// NewMemory returns a store that never touches disk.
func NewMemory() *Store {
	return &Store{scopes: make(map[string]Fingerprints), cfg: Config{Logger: zerolog.Nop()}}
}

// Open loads the store at cfg.FilePath, creating the file when missing.
func Open(cfg Config) (*Store, error) {
	s := &Store{scopes: make(map[string]Fingerprints), cfg: cfg}
	if cfg.FilePath == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	switch _, err := os.Stat(cfg.FilePath); {
	case os.IsNotExist(err):
		if err := s.writeFileAtomic([]byte("{}")); err != nil {
			return nil, fmt.Errorf("failed to create state file: %w", err)
		}
	case err == nil:
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load state file: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check state file: %w", err)
	}
	return s, nil
}

// Get returns a copy of the fingerprints recorded for scope.
func (s *Store) Get(scope string) Fingerprints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.scopes[scope])
}

// Put replaces the fingerprints of scope and persists the store.
func (s *Store) Put(scope string, fp Fingerprints) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fp == nil {
		fp = Fingerprints{}
	}
	s.scopes[scope] = maps.Clone(fp)
	return s.save()
}

// Scopes returns the recorded scopes, sorted.
func (s *Store) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.scopes))
	for k := range s.scopes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// save must be called with mu held.
func (s *Store) save() error {
	if s.cfg.FilePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.scopes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	sum := checksum(data)
	if sum == s.lastChecksum {
		return nil
	}

	if s.cfg.BackupCount > 0 {
		if err := s.createBackup(); err != nil {
			s.cfg.Logger.Warn().Err(err).Str("file", s.cfg.FilePath).Msg("Failed to create state backup")
		}
	}

	if err := s.writeFileAtomic(data); err != nil {
		return err
	}
	s.lastChecksum = sum
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.cfg.FilePath)
	if err != nil {
		return err
	}

	scopes := make(map[string]Fingerprints)
	if err := json.Unmarshal(data, &scopes); err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}

	s.scopes = scopes
	s.lastChecksum = checksum(data)
	return nil
}

func (s *Store) writeFileAtomic(data []byte) error {
	tmp := s.cfg.FilePath + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmp, s.cfg.FilePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Store) createBackup() error {
	src, err := os.Open(s.cfg.FilePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", s.cfg.FilePath, time.Now().Format("20060102_150405.000000000"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	s.pruneBackups()
	return nil
}

// pruneBackups keeps the newest BackupCount backups. Backup names sort by
// creation time.
func (s *Store) pruneBackups() {
	matches, err := filepath.Glob(s.cfg.FilePath + ".backup.*")
	if err != nil || len(matches) <= s.cfg.BackupCount {
		return
	}
	sort.Strings(matches)
	for _, m := range matches[:len(matches)-s.cfg.BackupCount] {
		os.Remove(m)
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
