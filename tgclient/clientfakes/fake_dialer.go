package clientfakes

import (
	"context"
	"sync"

	"github.com/omnichat/telegram-adapter/tgclient"
)

var _ tgclient.Dialer = (*FakeDialer)(nil)

// FakeDialer hands out FakeClients keyed by session ID and records how each
// dial was seeded.
type FakeDialer struct {
	lock    sync.Mutex
	clients map[string]*FakeClient
	seeds   map[string]string
	dials   int

	// DialErr, when set, fails every Dial.
	DialErr error
	// DialErrs fails dials for specific sessions only.
	DialErrs map[string]error
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{
		clients: make(map[string]*FakeClient),
		seeds:   make(map[string]string),
	}
}

func (d *FakeDialer) Dial(_ context.Context, sessionID, credential string) (tgclient.Client, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.DialErr != nil {
		return nil, d.DialErr
	}
	if err, ok := d.DialErrs[sessionID]; ok {
		return nil, err
	}

	d.dials++
	d.seeds[sessionID] = credential

	client, ok := d.clients[sessionID]
	if !ok {
		client = NewFakeClient()
		d.clients[sessionID] = client
	}
	return client, nil
}

// Prepare registers a client ahead of the Dial so tests can script it first.
func (d *FakeDialer) Prepare(sessionID string) *FakeClient {
	d.lock.Lock()
	defer d.lock.Unlock()

	client, ok := d.clients[sessionID]
	if !ok {
		client = NewFakeClient()
		d.clients[sessionID] = client
	}
	return client
}

// Client returns the client handed out for a session, nil when never dialed.
func (d *FakeDialer) Client(sessionID string) *FakeClient {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.clients[sessionID]
}

// Seed returns the credential the last Dial for a session was seeded with.
func (d *FakeDialer) Seed(sessionID string) string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.seeds[sessionID]
}

func (d *FakeDialer) Dials() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.dials
}
