// Package tgclient wraps the Telegram client library behind a small interface
// so that the registry and login flow can be exercised against fakes.
package tgclient

import "context"

// Sender describes the author of an inbound private message.
type Sender struct {
	ID       int64
	Name     string
	Username string
	Phone    string
}

// Message is one inbound private message. It is read once from the connection,
// forwarded, and discarded, never stored.
type Message struct {
	ID     int
	Text   string
	Date   int64
	Sender Sender
}

// MessageHandler consumes inbound private messages for one account.
type MessageHandler func(ctx context.Context, msg Message)

// QRCallbacks receive progress of an asynchronous QR sign-in. None of them is
// observed by the caller that started the handshake.
type QRCallbacks struct {
	// OnToken is invoked for every token the network issues, including
	// rotations while the code remains unscanned.
	OnToken func(loginURL string)

	// OnSuccess is invoked once a user has scanned and approved the login,
	// with the exportable session credential.
	OnSuccess func(credential string)

	OnError func(err error)
}

// Client is one live connection to Telegram for a single account.
type Client interface {
	// IsAuthorized reports whether the network has granted an authorized session.
	IsAuthorized(ctx context.Context) (bool, error)

	// SignInWithQR starts the QR handshake and returns once it is running.
	// Completion and token rotation are reported through the callbacks.
	SignInWithQR(ctx context.Context, callbacks QRCallbacks) error

	// OnMessage registers the handler for inbound private messages. Outgoing
	// and group or channel traffic never reaches the handler.
	OnMessage(handler MessageHandler)

	Close() error
}

// Dialer opens per-account connections. An empty credential dials a fresh,
// unauthenticated session.
type Dialer interface {
	Dial(ctx context.Context, sessionID, credential string) (Client, error)
}
