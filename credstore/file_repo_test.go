package credstore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/omnichat/telegram-adapter/credstore"
	apperrors "github.com/omnichat/telegram-adapter/internal/errors"
)

func newTestRepo(t *testing.T) (*credstore.FileRepo, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store", "sessions.json")
	repo, err := credstore.NewFileRepo(path, zerolog.Nop())
	require.NoError(t, err)
	return repo, path
}

func TestNewFileRepoInitialisesEmptyStore(t *testing.T) {
	repo, path := newTestRepo(t)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{}", string(raw))

	table, err := repo.GetAll()
	require.NoError(t, err)
	require.Empty(t, table)
}

func TestPutAndGet(t *testing.T) {
	repo, path := newTestRepo(t)

	require.NoError(t, repo.Put("acct1", "token-1"))
	require.NoError(t, repo.Put("acct2", "token-2"))

	token, err := repo.Get("acct1")
	require.NoError(t, err)
	require.Equal(t, "token-1", token)

	table, err := repo.GetAll()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"acct1": "token-1", "acct2": "token-2"}, table)

	// Tokens must survive a restart: a fresh repo over the same file sees them.
	reopened, err := credstore.NewFileRepo(path, zerolog.Nop())
	require.NoError(t, err)
	token, err = reopened.Get("acct2")
	require.NoError(t, err)
	require.Equal(t, "token-2", token)
}

func TestGetMissingSession(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get("nobody")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPutOverwrites(t *testing.T) {
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Put("acct1", "old"))
	require.NoError(t, repo.Put("acct1", "new"))

	token, err := repo.Get("acct1")
	require.NoError(t, err)
	require.Equal(t, "new", token)
}

func TestPutPrettyPrints(t *testing.T) {
	repo, path := newTestRepo(t)

	require.NoError(t, repo.Put("acct1", "token-1"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), "\n  \"acct1\""), "expected indented JSON, got %q", raw)
}

func TestCorruptStoreDegradesToEmpty(t *testing.T) {
	repo, path := newTestRepo(t)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	table, err := repo.GetAll()
	require.NoError(t, err)
	require.Empty(t, table)

	// The store must stay usable: the next Put rewrites a clean table.
	require.NoError(t, repo.Put("acct1", "token-1"))
	token, err := repo.Get("acct1")
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
}
