package actuator

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/pico-link/internal/gpio"
	"github.com/nerrad567/pico-link/internal/infrastructure/mqtt"
	"github.com/nerrad567/pico-link/internal/session"
	"github.com/nerrad567/pico-link/internal/telemetry"
)

// Loop timing defaults.
const (
	defaultPollInterval = 20 * time.Millisecond
	defaultRetryDelay   = time.Second
)

// Sessions is what the endpoint needs from the session manager.
// *session.Manager implements it.
type Sessions interface {
	Subscribe(topic string, handler session.Handler) error
	Open() (session.Conn, error)
	ReportFailure(conn session.Conn, err error)
}

// Logger defines the logging interface for the endpoint.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds the actuator endpoint settings.
type Config struct {
	// DeviceID tags recorded events.
	DeviceID string

	// PollInterval is how often CheckMsg is called.
	PollInterval time.Duration

	// RetryDelay is the pause before reopening after a failed check.
	RetryDelay time.Duration
}

// Endpoint drives the LED from command messages.
//
// Thread Safety:
//   - Run and Poll must be called from one goroutine. HandleMessage runs
//     inside CheckMsg on that same goroutine, so the LED has a single writer.
type Endpoint struct {
	cfg      Config
	led      gpio.Output
	sessions Sessions
	conn     session.Conn
	logger   Logger
	recorder telemetry.Recorder
	toggles  int
}

// New creates the endpoint and registers its command subscription with the
// session manager, so every session opened afterwards carries it.
//
// Parameters:
//   - cfg: Endpoint settings; zero durations mean 20ms and 1s
//   - led: The LED output, already driven to its initial (off) level
//   - sessions: Session manager used to subscribe and to reopen
//
// Returns:
//   - *Endpoint: Ready to Run once a session is open
//   - error: If the subscription cannot be registered
func New(cfg Config, led gpio.Output, sessions Sessions) (*Endpoint, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	e := &Endpoint{
		cfg:      cfg,
		led:      led,
		sessions: sessions,
		logger:   noopLogger{},
		recorder: telemetry.Nop{},
	}
	if err := sessions.Subscribe(mqtt.TopicCommand, e.HandleMessage); err != nil {
		return nil, fmt.Errorf("registering command subscription: %w", err)
	}
	return e, nil
}

// SetLogger sets the logger for the endpoint.
func (e *Endpoint) SetLogger(logger Logger) {
	e.logger = logger
}

// SetRecorder sets the telemetry recorder for toggle events.
func (e *Endpoint) SetRecorder(recorder telemetry.Recorder) {
	e.recorder = recorder
}

// Conn returns the session handle the loop is checking, or nil while
// waiting to reopen.
func (e *Endpoint) Conn() session.Conn {
	return e.conn
}

// Toggles returns how many commands flipped the LED.
func (e *Endpoint) Toggles() int {
	return e.toggles
}

// HandleMessage acts on an exact TOGGLE on the command topic and ignores
// everything else.
//
// The LED is flipped, read back, and the read-back state is published as
// ON or OFF on the ack topic through pub, the session the message arrived
// on. A failed ack is logged only; it never starts a reconnect.
func (e *Endpoint) HandleMessage(pub session.Publisher, topic string, payload []byte) error {
	if topic != mqtt.TopicCommand || string(payload) != mqtt.PayloadToggle {
		return nil
	}

	if err := e.led.Set(!e.led.Get()); err != nil {
		return fmt.Errorf("%w: %w", ErrLEDWrite, err)
	}
	e.toggles++

	state := mqtt.PayloadOff
	if e.led.Get() {
		state = mqtt.PayloadOn
	}

	e.logger.Info("toggled LED", "state", state)
	e.recorder.Record(telemetry.Event{
		Kind:    telemetry.KindLEDToggled,
		Device:  e.cfg.DeviceID,
		Subject: "led",
		Value:   state,
	})

	if err := pub.Publish(mqtt.TopicAck, []byte(state), mqtt.QoSAtLeastOnce, false); err != nil {
		e.logger.Warn("ack publish failed", "state", state, "error", err)
		e.recorder.Record(telemetry.Event{
			Kind:    telemetry.KindAckFailed,
			Device:  e.cfg.DeviceID,
			Subject: mqtt.TopicAck,
			Value:   state,
			Err:     err.Error(),
		})
	}
	return nil
}

// Run checks for messages every PollInterval, starting with conn, until
// ctx is cancelled. Session failures never end Run.
func (e *Endpoint) Run(ctx context.Context, conn session.Conn) error {
	e.conn = conn

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := e.Poll(ctx); err != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs one loop iteration.
//
// With a session it calls CheckMsg once. If that fails, or there is no
// session because the last reopen failed, it waits RetryDelay and calls
// Open. The old handle is not closed first. A failed Open is logged and
// left for the next iteration.
//
// Returns:
//   - error: Only ctx.Err() when cancelled during the retry delay
func (e *Endpoint) Poll(ctx context.Context) error {
	if e.conn != nil {
		err := e.conn.CheckMsg()
		if err == nil {
			return nil
		}
		e.logger.Warn("MQTT error, reconnecting", "error", err)
		e.sessions.ReportFailure(e.conn, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.RetryDelay):
	}

	conn, err := e.sessions.Open()
	if err != nil {
		e.logger.Error("reopening session failed", "error", err)
		e.conn = nil
		return nil
	}
	e.conn = conn
	return nil
}
