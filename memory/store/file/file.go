// Package file stores each user's memory collection as one JSON file,
// read-modify-written as a whole on every append. Appends are
// serialized per user so concurrent appends never drop an entry;
// operations on different users never contend.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aetherlabs/aether-go/memory"
)

// Store is a filesystem-backed memory.Store.
type Store struct {
	dir      string
	embedder memory.Embedder
	logger   *zap.Logger

	mu    sync.RWMutex // guards locks
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store rooted at dir. Construction always succeeds: if
// the directory cannot be created now (read-only mount, permissions),
// the error surfaces on the first write instead, and reads of missing
// collections stay empty results.
func New(dir string, embedder memory.Embedder, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		embedder: embedder,
		logger:   zap.NewNop(),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("memory directory not created, deferring to first write",
			zap.String("dir", dir), zap.Error(err))
	}
	return s
}

// Append embeds content, builds the entry and persists it at the end
// of the user's collection under the user's write lock.
func (s *Store) Append(ctx context.Context, userID, content string, meta memory.Metadata) (*memory.Entry, error) {
	if !meta.Type.Valid() {
		return nil, fmt.Errorf("invalid entry type %q", meta.Type)
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entries, err := s.readUser(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := memory.Entry{
		ID:        memory.NewEntryID(now),
		UserID:    userID,
		Content:   content,
		Embedding: embedding,
		Metadata:  meta,
		Timestamp: now,
	}
	entries = append(entries, entry)

	if err := s.writeUser(userID, entries); err != nil {
		return nil, err
	}

	s.logger.Debug("entry appended",
		zap.String("user_id", userID),
		zap.String("entry_id", entry.ID),
		zap.String("type", string(meta.Type)),
		zap.Int("collection_size", len(entries)))

	return &entry, nil
}

// LoadAll returns the user's collection in storage order, oldest
// first. A user with no collection yet yields an empty result.
func (s *Store) LoadAll(_ context.Context, userID string) ([]memory.Entry, error) {
	return s.readUser(userID)
}

// Close releases resources. The store holds no open handles between
// calls, so this is a no-op.
func (s *Store) Close() error {
	return nil
}

// userLock returns the append lock for a user, creating it on first
// use with double-checked promotion from the read lock.
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.RLock()
	lock, ok := s.locks[userID]
	s.mu.RUnlock()
	if ok {
		return lock
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[userID]; ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[userID] = lock
	return lock
}

func (s *Store) userPath(userID string) string {
	return filepath.Join(s.dir, userID+".json")
}

func (s *Store) readUser(userID string) ([]memory.Entry, error) {
	data, err := os.ReadFile(s.userPath(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return []memory.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", memory.ErrStorageUnavailable, userID, err)
	}

	var entries []memory.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode collection for %s: %v", memory.ErrStorageUnavailable, userID, err)
	}
	return entries, nil
}

// writeUser replaces the user's collection file. The write goes to a
// temp file in the same directory and is renamed into place so a
// concurrent reader sees either the old or the new collection, never a
// partial one.
func (s *Store) writeUser(userID string, entries []memory.Entry) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", memory.ErrStorageUnavailable, s.dir, err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection for %s: %w", userID, err)
	}

	path := s.userPath(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", memory.ErrStorageUnavailable, userID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", memory.ErrStorageUnavailable, userID, err)
	}
	return nil
}
