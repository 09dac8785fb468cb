package tgclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
)

// GotdDialer opens live Telegram connections through gotd/td.
type GotdDialer struct {
	apiID   int
	apiHash string
	log     zerolog.Logger
}

var _ Dialer = (*GotdDialer)(nil)

func NewGotdDialer(apiID int, apiHash string, log zerolog.Logger) *GotdDialer {
	return &GotdDialer{
		apiID:   apiID,
		apiHash: apiHash,
		log:     log.With().Str("component", "tgclient").Logger(),
	}
}

// Dial connects a per-account client seeded with the given credential and
// returns once the connection is up. The connection itself outlives the dial
// request and runs until Close.
func (d *GotdDialer) Dial(ctx context.Context, sessionID, credential string) (Client, error) {
	storage := &session.StorageMemory{}
	if credential != "" {
		raw, err := base64.StdEncoding.DecodeString(credential)
		if err != nil {
			return nil, fmt.Errorf("[GotdDialer Dial] decode credential for %s: %w", sessionID, err)
		}
		if err := storage.StoreSession(ctx, raw); err != nil {
			return nil, fmt.Errorf("[GotdDialer Dial] seed session for %s: %w", sessionID, err)
		}
	}

	dispatcher := tg.NewUpdateDispatcher()
	c := &gotdClient{
		sessionID:  sessionID,
		dispatcher: dispatcher,
		storage:    storage,
		done:       make(chan struct{}),
		log:        d.log.With().Str("session_id", sessionID).Logger(),
	}
	c.client = telegram.NewClient(d.apiID, d.apiHash, telegram.Options{
		SessionStorage: storage,
		UpdateHandler:  dispatcher,
	})
	dispatcher.OnNewMessage(c.handleNewMessage)

	// Run owns the connection for its whole lifetime, so it gets a context
	// detached from the dial request.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.runCtx = runCtx
	c.cancel = cancel

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		defer close(c.done)
		err := c.client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
		if err != nil && runCtx.Err() == nil {
			c.log.Error().Err(err).Msg("Connection terminated")
		}
		errCh <- err
	}()

	select {
	case <-ready:
		c.log.Info().Msg("Connected to Telegram")
		return c, nil
	case err := <-errCh:
		cancel()
		return nil, fmt.Errorf("[GotdDialer Dial] connect %s: %w", sessionID, err)
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// gotdClient is one live per-account connection.
type gotdClient struct {
	sessionID  string
	client     *telegram.Client
	dispatcher tg.UpdateDispatcher
	storage    *session.StorageMemory
	runCtx     context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	log        zerolog.Logger

	mu         sync.RWMutex
	handler    MessageHandler
	qrInFlight bool
}

var _ Client = (*gotdClient)(nil)

func (c *gotdClient) IsAuthorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("[gotdClient IsAuthorized] auth status for %s: %w", c.sessionID, err)
	}
	return status.Authorized, nil
}

// SignInWithQR drives the handshake on the connection's own context; the
// token and completion callbacks fire as the network makes progress, not as
// the caller does. A handshake already in flight keeps its callbacks.
func (c *gotdClient) SignInWithQR(_ context.Context, callbacks QRCallbacks) error {
	c.mu.Lock()
	if c.qrInFlight {
		c.mu.Unlock()
		return nil
	}
	c.qrInFlight = true
	c.mu.Unlock()

	loggedIn := qrlogin.OnLoginToken(c.dispatcher)

	go func() {
		defer func() {
			c.mu.Lock()
			c.qrInFlight = false
			c.mu.Unlock()
		}()

		_, err := c.client.QR().Auth(c.runCtx, loggedIn, func(ctx context.Context, token qrlogin.Token) error {
			if callbacks.OnToken != nil {
				callbacks.OnToken(token.URL())
			}
			return nil
		})
		if err != nil {
			c.log.Error().Err(err).Msg("QR handshake failed")
			if callbacks.OnError != nil {
				callbacks.OnError(err)
			}
			return
		}

		credential, err := c.exportCredential(c.runCtx)
		if err != nil {
			c.log.Error().Err(err).Msg("Export credential failed")
			if callbacks.OnError != nil {
				callbacks.OnError(err)
			}
			return
		}
		if callbacks.OnSuccess != nil {
			callbacks.OnSuccess(credential)
		}
	}()

	return nil
}

func (c *gotdClient) OnMessage(handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *gotdClient) Close() error {
	c.cancel()
	<-c.done
	return nil
}

// exportCredential serializes the now-authorized session into the opaque
// token persisted by the credential store.
func (c *gotdClient) exportCredential(ctx context.Context) (string, error) {
	raw, err := c.storage.LoadSession(ctx)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (c *gotdClient) handleNewMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}
	// Private messages only; group and channel traffic stays on the floor.
	peer, ok := msg.PeerID.(*tg.PeerUser)
	if !ok {
		return nil
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler == nil {
		return nil
	}

	sender := Sender{ID: peer.UserID}
	if user, ok := e.Users[peer.UserID]; ok {
		sender.Name = strings.TrimSpace(user.FirstName + " " + user.LastName)
		sender.Username = user.Username
		sender.Phone = user.Phone
	}

	handler(ctx, Message{
		ID:     msg.ID,
		Text:   msg.Message,
		Date:   int64(msg.Date),
		Sender: sender,
	})
	return nil
}
