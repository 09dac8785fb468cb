package clientfakes

import (
	"context"
	"sync"

	"github.com/omnichat/telegram-adapter/tgclient"
)

var _ tgclient.Client = (*FakeClient)(nil)

// FakeClient is a scriptable connection: tests emit tokens, complete or fail
// the scan, and deliver inbound messages by hand.
type FakeClient struct {
	lock       sync.Mutex
	authorized bool
	authErr    error
	signInErr  error
	callbacks  tgclient.QRCallbacks
	handler    tgclient.MessageHandler
	signIns    int
	closed     bool
}

func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

func (c *FakeClient) IsAuthorized(_ context.Context) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.authErr != nil {
		return false, c.authErr
	}
	return c.authorized, nil
}

func (c *FakeClient) SignInWithQR(_ context.Context, callbacks tgclient.QRCallbacks) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.signInErr != nil {
		return c.signInErr
	}
	c.callbacks = callbacks
	c.signIns++
	return nil
}

func (c *FakeClient) OnMessage(handler tgclient.MessageHandler) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.handler = handler
}

func (c *FakeClient) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = true
	return nil
}

// SetAuthorized marks the connection as already holding a valid session.
func (c *FakeClient) SetAuthorized(authorized bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.authorized = authorized
}

func (c *FakeClient) SetAuthErr(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.authErr = err
}

func (c *FakeClient) SetSignInErr(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.signInErr = err
}

// EmitToken simulates the network issuing (or rotating) a QR login token.
func (c *FakeClient) EmitToken(loginURL string) {
	c.lock.Lock()
	cb := c.callbacks.OnToken
	c.lock.Unlock()
	if cb != nil {
		cb(loginURL)
	}
}

// CompleteScan simulates the out-of-band scan and approval.
func (c *FakeClient) CompleteScan(credential string) {
	c.lock.Lock()
	c.authorized = true
	cb := c.callbacks.OnSuccess
	c.lock.Unlock()
	if cb != nil {
		cb(credential)
	}
}

// FailScan simulates a handshake error from the network.
func (c *FakeClient) FailScan(err error) {
	c.lock.Lock()
	cb := c.callbacks.OnError
	c.lock.Unlock()
	if cb != nil {
		cb(err)
	}
}

// Deliver pushes an inbound message through the registered handler.
func (c *FakeClient) Deliver(msg tgclient.Message) {
	c.lock.Lock()
	handler := c.handler
	c.lock.Unlock()
	if handler != nil {
		handler(context.Background(), msg)
	}
}

func (c *FakeClient) SignIns() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.signIns
}

func (c *FakeClient) Closed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}
