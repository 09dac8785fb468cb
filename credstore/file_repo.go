package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	apperrors "github.com/omnichat/telegram-adapter/internal/errors"
)

// FileRepo persists the credential table as one pretty-printed JSON object on
// disk. Every Put rewrites the whole file; there is no partial-write guarantee,
// so the mutex is the only writer coordination inside the process.
type FileRepo struct {
	path string
	log  zerolog.Logger
	mu   sync.Mutex
}

var _ Repo = (*FileRepo)(nil)

// NewFileRepo opens the store at path, creating the directory and an empty
// table when none exists yet.
func NewFileRepo(path string, log zerolog.Logger) (*FileRepo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("[NewFileRepo] create store directory: %w", err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			return nil, fmt.Errorf("[NewFileRepo] initialise store file: %w", err)
		}
	}
	return &FileRepo{
		path: path,
		log:  log.With().Str("component", "credstore").Logger(),
	}, nil
}

// GetAll returns the persisted table. A missing or unparseable file degrades
// to an empty table so a corrupted store never takes startup down.
func (r *FileRepo) GetAll() (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll(), nil
}

func (r *FileRepo) Get(sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.readAll()[sessionID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return token, nil
}

// Put performs a full read-modify-write of the table.
func (r *FileRepo) Put(sessionID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.readAll()
	table[sessionID] = token

	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileRepo Put] marshal table: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("[FileRepo Put] write %s: %w", r.path, err)
	}
	return nil
}

func (r *FileRepo) readAll() map[string]string {
	table := make(map[string]string)

	raw, err := os.ReadFile(r.path)
	if err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("Credential store unreadable, treating as empty")
		return table
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("Credential store corrupted, treating as empty")
		return make(map[string]string)
	}
	return table
}
