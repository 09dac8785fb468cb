// Package registry owns the in-memory table of live per-account connections.
package registry

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	apperrors "github.com/omnichat/telegram-adapter/internal/errors"
	"github.com/omnichat/telegram-adapter/internal/metrics"
	"github.com/omnichat/telegram-adapter/tgclient"
)

// Subscriber consumes inbound private messages for any registered session.
type Subscriber func(ctx context.Context, sessionID string, msg tgclient.Message)

// Registry holds at most one live connection handle per session ID. Sessions
// are never evicted for inactivity; entries only leave through CloseAll.
type Registry struct {
	dialer     tgclient.Dialer
	subscriber Subscriber
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[string]tgclient.Client
}

func New(dialer tgclient.Dialer, subscriber Subscriber, log zerolog.Logger) *Registry {
	return &Registry{
		dialer:     dialer,
		subscriber: subscriber,
		log:        log.With().Str("component", "registry").Logger(),
		clients:    make(map[string]tgclient.Client),
	}
}

// GetOrCreate returns the existing handle for a session unchanged, or dials a
// new connection seeded with seedCredential. Dialing happens under the
// registry lock, so two racing callers can never open two physical
// connections for the same session.
func (r *Registry) GetOrCreate(ctx context.Context, sessionID, seedCredential string) (tgclient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[sessionID]; ok {
		return client, nil
	}

	client, err := r.dialer.Dial(ctx, sessionID, seedCredential)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConnection, "[Registry GetOrCreate] dial %s failed (%v)", sessionID, err)
	}

	// Attach the subscriber before registering, so the session is
	// relay-eligible from the moment it is visible. An unauthenticated
	// connection simply receives no events yet.
	if r.subscriber != nil {
		client.OnMessage(func(ctx context.Context, msg tgclient.Message) {
			r.subscriber(ctx, sessionID, msg)
		})
	}

	r.clients[sessionID] = client
	metrics.ActiveConnections.Inc()
	r.log.Info().Str("session_id", sessionID).Msg("Registered connection")
	return client, nil
}

// Get returns the registered handle for a session, if any.
func (r *Registry) Get(sessionID string) (tgclient.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[sessionID]
	return client, ok
}

// Count reports registered connections regardless of auth state.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// CloseAll tears down every connection. Called on process shutdown only.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sessionID, client := range r.clients {
		if err := client.Close(); err != nil {
			r.log.Warn().Err(err).Str("session_id", sessionID).Msg("Close failed")
		}
		delete(r.clients, sessionID)
		metrics.ActiveConnections.Dec()
	}
}
