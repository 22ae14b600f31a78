package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/pico-link/internal/infrastructure/config"
)

// Client is one broker connection: a single session in pico-link terms.
//
// Unlike a long-lived service client it never reconnects by itself. When
// the link drops, Publish fails and CheckMsg reports ErrConnectionLost; the
// owner then discards the Client and dials a new one.
//
// Thread Safety:
//   - Publish, Subscribe, CheckMsg and Close may be called from any goroutine,
//     but pico-link calls them from the endpoint loop only.
//   - Message handlers run inside CheckMsg, on the caller's goroutine.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	// inbox holds received messages until CheckMsg dispatches them.
	inbox chan inboundMessage
	done  chan struct{}

	mu      sync.RWMutex
	lostErr error
	closed  bool

	// subscriptions maps exact topic filters to their handlers.
	subscriptions map[string]MessageHandler

	// logger for handler error/panic logging (optional, set via SetLogger).
	logger Logger
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked synchronously from CheckMsg, never from a paho
// goroutine.
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// inboundMessage is a received message waiting in the inbox.
type inboundMessage struct {
	topic   string
	payload []byte
	handler MessageHandler
}

// newClient returns an unconnected Client with its inbox allocated.
func newClient(cfg config.MQTTConfig) *Client {
	return &Client{
		cfg:           cfg,
		inbox:         make(chan inboundMessage, inboxSize),
		done:          make(chan struct{}),
		subscriptions: make(map[string]MessageHandler),
	}
}

// Dial opens a new broker connection with the given last testament.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS, keepalive)
//  2. Configures the will
//  3. Connects once, waiting up to the connect timeout
//
// There is no retry here; callers own the retry policy.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - will: Message the broker publishes if this connection dies uncleanly
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrConnectionFailed (wrapped) if the broker is unreachable or refuses
func Dial(cfg config.MQTTConfig, will Will) (*Client, error) {
	opts := buildClientOptions(cfg)
	configureWill(opts, will)

	c := newClient(cfg)

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// handleConnectionLost records why the link dropped.
func (c *Client) handleConnectionLost(err error) {
	if err == nil {
		err = ErrConnectionLost
	}

	c.mu.Lock()
	if c.lostErr == nil {
		c.lostErr = err
	}
	c.mu.Unlock()
}

// Close disconnects from the broker.
//
// A clean DISCONNECT suppresses the will, so callers that want the retained
// status to read "offline" must publish it before calling Close.
// Closing an already closed or lost client is not an error.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	if c.client != nil && c.client.IsConnectionOpen() {
		c.client.Disconnect(defaultDisconnectQuiesce)
	}

	return nil
}

// HealthCheck reports whether the link is usable.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: nil if healthy, ErrNotConnected or ErrConnectionLost otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if err := c.linkError(); err != nil {
		return err
	}

	return nil
}

// IsConnected returns true while the link is open and not closed by us.
func (c *Client) IsConnected() bool {
	return c.linkError() == nil
}

// linkError returns the reason the client is unusable, or nil.
func (c *Client) linkError() error {
	c.mu.RLock()
	closed, lost := c.closed, c.lostErr
	c.mu.RUnlock()

	switch {
	case closed:
		return ErrNotConnected
	case lost != nil:
		return fmt.Errorf("%w: %w", ErrConnectionLost, lost)
	case c.client == nil || !c.client.IsConnectionOpen():
		return ErrNotConnected
	}
	return nil
}

// SetLogger sets a logger for handler error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}
