package fakecredrepo

import (
	"sync"

	"github.com/omnichat/telegram-adapter/credstore"
	apperrors "github.com/omnichat/telegram-adapter/internal/errors"
)

var _ credstore.Repo = (*FakeCredRepo)(nil)

type FakeCredRepo struct {
	lock   sync.RWMutex
	tokens map[string]string

	// Injectable failures
	GetAllErr error
	PutErr    error
}

func NewFakeCredRepo() *FakeCredRepo {
	return &FakeCredRepo{
		tokens: make(map[string]string),
	}
}

func (cr *FakeCredRepo) GetAll() (map[string]string, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	if cr.GetAllErr != nil {
		return nil, cr.GetAllErr
	}

	table := make(map[string]string, len(cr.tokens))
	for id, token := range cr.tokens {
		table[id] = token
	}
	return table, nil
}

func (cr *FakeCredRepo) Get(sessionID string) (string, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	token, ok := cr.tokens[sessionID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return token, nil
}

func (cr *FakeCredRepo) Put(sessionID, token string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if cr.PutErr != nil {
		return cr.PutErr
	}

	cr.tokens[sessionID] = token
	return nil
}

// Seed preloads a credential without going through Put's failure injection.
func (cr *FakeCredRepo) Seed(sessionID, token string) {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	cr.tokens[sessionID] = token
}
