package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apperrors "github.com/omnichat/telegram-adapter/internal/errors"
	"github.com/omnichat/telegram-adapter/registry"
	"github.com/omnichat/telegram-adapter/tgclient"
	"github.com/omnichat/telegram-adapter/tgclient/clientfakes"
)

type received struct {
	sessionID string
	msg       tgclient.Message
}

type testFixture struct {
	dialer   *clientfakes.FakeDialer
	registry *registry.Registry

	mu       sync.Mutex
	messages []received
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{dialer: clientfakes.NewFakeDialer()}
	f.registry = registry.New(f.dialer, func(_ context.Context, sessionID string, msg tgclient.Message) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.messages = append(f.messages, received{sessionID: sessionID, msg: msg})
	}, zerolog.Nop())
	return f
}

func (f *testFixture) receivedMessages() []received {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]received(nil), f.messages...)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first, err := f.registry.GetOrCreate(ctx, "acct1", "")
	require.NoError(t, err)
	second, err := f.registry.GetOrCreate(ctx, "acct1", "")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, f.dialer.Dials())
	require.Equal(t, 1, f.registry.Count())
}

func TestGetOrCreateConcurrent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	const callers = 10
	clients := make([]tgclient.Client, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], errs[i] = f.registry.GetOrCreate(ctx, "acct1", "")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}
	for i := 1; i < callers; i++ {
		require.Same(t, clients[0], clients[i])
	}
	require.Equal(t, 1, f.dialer.Dials())
}

func TestDialFailureLeavesSessionUnregistered(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.dialer.DialErr = errors.New("dc unreachable")

	_, err := f.registry.GetOrCreate(ctx, "acct1", "")
	require.ErrorIs(t, err, apperrors.ErrConnection)
	require.Equal(t, 0, f.registry.Count())
	_, ok := f.registry.Get("acct1")
	require.False(t, ok)

	// The next attempt is a fresh dial, not a cached failure.
	f.dialer.DialErr = nil
	_, err = f.registry.GetOrCreate(ctx, "acct1", "")
	require.NoError(t, err)
	require.Equal(t, 1, f.registry.Count())
}

func TestSeedCredentialIsPassedToDialer(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.registry.GetOrCreate(context.Background(), "acct1", "saved-token")
	require.NoError(t, err)
	require.Equal(t, "saved-token", f.dialer.Seed("acct1"))
}

func TestSubscriberReceivesInboundMessages(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.registry.GetOrCreate(context.Background(), "acct1", "")
	require.NoError(t, err)

	msg := tgclient.Message{ID: 7, Text: "hello", Date: 1700000000, Sender: tgclient.Sender{ID: 42, Name: "John Doe"}}
	f.dialer.Client("acct1").Deliver(msg)

	got := f.receivedMessages()
	require.Len(t, got, 1)
	require.Equal(t, "acct1", got[0].sessionID)
	require.Equal(t, msg, got[0].msg)
}

func TestCloseAll(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.registry.GetOrCreate(ctx, "acct1", "")
	require.NoError(t, err)
	_, err = f.registry.GetOrCreate(ctx, "acct2", "")
	require.NoError(t, err)

	f.registry.CloseAll()

	require.Equal(t, 0, f.registry.Count())
	require.True(t, f.dialer.Client("acct1").Closed())
	require.True(t, f.dialer.Client("acct2").Closed())
}
