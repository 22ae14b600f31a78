package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/pico-link/internal/infrastructure/mqtt"
	"github.com/nerrad567/pico-link/internal/telemetry"
)

// State is the Manager's view of its session.
type State int

const (
	// StateDisconnected means no session is usable.
	StateDisconnected State = iota

	// StateConnecting means Open is building a session.
	StateConnecting

	// StateLive means the current session completed Open and has not
	// failed or been closed since.
	StateLive
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// defaultNetworkPollInterval is used when Config leaves it unset.
const defaultNetworkPollInterval = 200 * time.Millisecond

// Publisher is the capability handed to message handlers.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Conn is one broker session. *mqtt.Client implements it.
type Conn interface {
	Publisher
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	CheckMsg() error
	Close() error
}

// Dialer opens a new broker connection carrying the given will.
type Dialer func(will mqtt.Will) (Conn, error)

// Network is the association collaborator.
type Network interface {
	// IsConnected reports whether the device currently holds an address.
	IsConnected() bool

	// Address returns the held address, or "" if none.
	Address() string
}

// Handler handles a message received on a tracked subscription. pub is the
// session the subscription was registered on.
type Handler func(pub Publisher, topic string, payload []byte) error

// Logger defines the logging interface for the manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds the fixed per-endpoint session settings.
type Config struct {
	// ClientID identifies the endpoint in logs and events.
	ClientID string

	// DeviceID selects the status topic stm/{DeviceID}/status.
	DeviceID string

	// NetworkPollInterval is how often EstablishNetwork checks the network.
	NetworkPollInterval time.Duration
}

// subscription is a tracked subscription applied on every Open.
type subscription struct {
	topic   string
	handler Handler
}

// Manager owns the live session handle of one endpoint.
//
// Thread Safety:
//   - State, Current and Sessions may be read from any goroutine.
//   - Open, Recover, ReportFailure and Close are meant to be called from the
//     endpoint loop only; the Manager does not serialise concurrent opens.
type Manager struct {
	cfg         Config
	statusTopic string
	dial        Dialer
	network     Network
	logger      Logger
	recorder    telemetry.Recorder

	mu            sync.RWMutex
	state         State
	current       Conn
	opened        int
	subscriptions []subscription
}

// NewManager creates a Manager in StateDisconnected.
func NewManager(cfg Config, dial Dialer, network Network) *Manager {
	if cfg.NetworkPollInterval <= 0 {
		cfg.NetworkPollInterval = defaultNetworkPollInterval
	}

	return &Manager{
		cfg:         cfg,
		statusTopic: mqtt.Topics{}.DeviceStatus(cfg.DeviceID),
		dial:        dial,
		network:     network,
		logger:      noopLogger{},
		recorder:    telemetry.Nop{},
		state:       StateDisconnected,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// SetRecorder sets the telemetry recorder for session events.
func (m *Manager) SetRecorder(recorder telemetry.Recorder) {
	m.recorder = recorder
}

// StatusTopic returns the retained presence topic of this device.
func (m *Manager) StatusTopic() string {
	return m.statusTopic
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the live session, or nil when not live.
func (m *Manager) Current() Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateLive {
		return nil
	}
	return m.current
}

// Sessions returns how many sessions have been opened successfully.
func (m *Manager) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opened
}

// Subscribe tracks a subscription. It takes effect on the next Open and on
// every Open after that, with QoS 1.
func (m *Manager) Subscribe(topic string, handler Handler) error {
	if topic == "" || handler == nil {
		return ErrInvalidSubscription
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subscriptions {
		if sub.topic == topic {
			m.subscriptions[i].handler = handler
			return nil
		}
	}
	m.subscriptions = append(m.subscriptions, subscription{topic: topic, handler: handler})
	return nil
}

// EstablishNetwork blocks until the network collaborator reports an
// address, checking every NetworkPollInterval. There is no upper bound on
// the wait; only ctx cancellation ends it early.
func (m *Manager) EstablishNetwork(ctx context.Context) error {
	for !m.network.IsConnected() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for network: %w", ctx.Err())
		case <-time.After(m.cfg.NetworkPollInterval):
		}
	}

	address := m.network.Address()
	m.logger.Info("network connected", "address", address)
	m.recorder.Record(telemetry.Event{
		Kind:    telemetry.KindNetworkUp,
		Device:  m.cfg.DeviceID,
		Subject: m.cfg.ClientID,
		Value:   address,
	})
	return nil
}

// Open builds a new session and makes it the live one.
//
// In order it:
//  1. dials with the will "offline" (QoS 1, retained) on the status topic
//  2. registers every tracked subscription (QoS 1), each handler bound to
//     the new session as its Publisher
//  3. publishes "online" (QoS 1, retained) on the status topic
//
// Any previous handle is superseded without being closed. A failure is
// returned as is (wrapped in ErrOpenFailed) with no retry; if it happens
// after dialing, the half-built connection is closed first.
func (m *Manager) Open() (Conn, error) {
	m.mu.Lock()
	m.state = StateConnecting
	m.current = nil
	subs := append([]subscription(nil), m.subscriptions...)
	m.mu.Unlock()

	conn, err := m.dial(mqtt.Will{
		Topic:    m.statusTopic,
		Payload:  []byte(mqtt.StatusOffline),
		QoS:      mqtt.QoSAtLeastOnce,
		Retained: true,
	})
	if err != nil {
		return nil, m.openFailed("dial", err)
	}

	for _, sub := range subs {
		if err := conn.Subscribe(sub.topic, mqtt.QoSAtLeastOnce, bind(conn, sub.handler)); err != nil {
			_ = conn.Close()
			return nil, m.openFailed("subscribe "+sub.topic, err)
		}
	}

	if err := conn.Publish(m.statusTopic, []byte(mqtt.StatusOnline), mqtt.QoSAtLeastOnce, true); err != nil {
		_ = conn.Close()
		return nil, m.openFailed("announce online", err)
	}

	m.mu.Lock()
	m.current = conn
	m.state = StateLive
	m.opened++
	opened := m.opened
	m.mu.Unlock()

	m.logger.Info("session open",
		"status_topic", m.statusTopic,
		"subscriptions", len(subs),
		"session", opened,
	)
	m.recorder.Record(telemetry.Event{
		Kind:    telemetry.KindSessionOpened,
		Device:  m.cfg.DeviceID,
		Subject: m.cfg.ClientID,
		Value:   mqtt.StatusOnline,
	})

	return conn, nil
}

// bind closes over the session a handler was registered on.
func bind(pub Publisher, handler Handler) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		return handler(pub, topic, payload)
	}
}

// openFailed moves to StateDisconnected and wraps the failing step.
func (m *Manager) openFailed(step string, err error) error {
	m.mu.Lock()
	m.state = StateDisconnected
	m.current = nil
	m.mu.Unlock()

	m.recorder.Record(telemetry.Event{
		Kind:    telemetry.KindSessionFailed,
		Device:  m.cfg.DeviceID,
		Subject: step,
		Err:     err.Error(),
	})
	return fmt.Errorf("%w: %s: %w", ErrOpenFailed, step, err)
}

// ReportFailure tells the Manager that conn failed a transport operation.
// If conn is the live session the state drops to StateDisconnected. The
// handle is not closed.
func (m *Manager) ReportFailure(conn Conn, err error) {
	m.mu.Lock()
	if conn == nil || conn != m.current {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.current = nil
	m.mu.Unlock()

	m.logger.Debug("session failure reported", "error", err)
}

// Recover replaces old with a fresh session: old is closed best effort
// (close errors are discarded, the handle is being thrown away) and Open is
// called exactly once. An Open failure is returned to the caller.
func (m *Manager) Recover(old Conn) (Conn, error) {
	if old != nil {
		if err := old.Close(); err != nil {
			m.logger.Debug("ignoring close error on superseded session", "error", err)
		}
	}
	m.ReportFailure(old, nil)

	conn, err := m.Open()
	if err != nil {
		return nil, err
	}

	m.recorder.Record(telemetry.Event{
		Kind:    telemetry.KindSessionRecovered,
		Device:  m.cfg.DeviceID,
		Subject: m.cfg.ClientID,
	})
	return conn, nil
}

// HealthCheck returns ErrNoSession unless a session is live.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("session health check: %w", err)
	}
	if m.State() != StateLive {
		return ErrNoSession
	}
	return nil
}

// Close shuts the live session down gracefully.
//
// A clean disconnect suppresses the will, so Close publishes the retained
// "offline" itself before disconnecting. The state is StateDisconnected
// afterwards even if either step fails.
func (m *Manager) Close() error {
	m.mu.Lock()
	conn, live := m.current, m.state == StateLive
	m.current = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if conn == nil {
		return nil
	}

	var errs []error
	if live {
		if err := conn.Publish(m.statusTopic, []byte(mqtt.StatusOffline), mqtt.QoSAtLeastOnce, true); err != nil {
			errs = append(errs, fmt.Errorf("announcing offline: %w", err))
		}
	}
	if err := conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing session: %w", err))
	}

	m.recorder.Record(telemetry.Event{
		Kind:    telemetry.KindSessionClosed,
		Device:  m.cfg.DeviceID,
		Subject: m.cfg.ClientID,
		Value:   mqtt.StatusOffline,
	})

	return errors.Join(errs...)
}
