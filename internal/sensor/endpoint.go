package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/pico-link/internal/gpio"
	"github.com/nerrad567/pico-link/internal/infrastructure/mqtt"
	"github.com/nerrad567/pico-link/internal/session"
	"github.com/nerrad567/pico-link/internal/telemetry"
)

// defaultPollInterval is the button sampling period.
const defaultPollInterval = 20 * time.Millisecond

// Button binds one input pin to the message its press publishes.
type Button struct {
	Name    string
	Topic   string
	Payload string
	Input   gpio.Input
}

// Recoverer rebuilds a failed session. *session.Manager implements it.
type Recoverer interface {
	Recover(old session.Conn) (session.Conn, error)
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

// Config holds the sensor endpoint settings.
type Config struct {
	// DeviceID tags recorded events.
	DeviceID string

	// PollInterval is how often every button is sampled.
	PollInterval time.Duration
}

// watched is a Button with its edge state.
type watched struct {
	Button
	edge *EdgeDetector
}

// Endpoint polls buttons and publishes on presses.
//
// Thread Safety:
//   - Run and Poll must be called from one goroutine; the endpoint owns the
//     session handle it publishes on.
type Endpoint struct {
	cfg      Config
	buttons  []*watched
	sessions Recoverer
	conn     session.Conn
	logger   Logger
	recorder telemetry.Recorder
	presses  int
}

// New creates the endpoint and samples every button's initial level, so a
// button already held at startup does not count as a press.
//
// Parameters:
//   - cfg: Endpoint settings; a zero PollInterval means 20ms
//   - buttons: Buttons in the order they are checked each iteration
//   - sessions: Used to rebuild the session after a failed publish
//
// Returns:
//   - *Endpoint: Ready to Run
//   - error: ErrNoButtons if buttons is empty
func New(cfg Config, buttons []Button, sessions Recoverer) (*Endpoint, error) {
	if len(buttons) == 0 {
		return nil, ErrNoButtons
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	e := &Endpoint{
		cfg:      cfg,
		sessions: sessions,
		logger:   noopLogger{},
		recorder: telemetry.Nop{},
	}
	for _, b := range buttons {
		e.buttons = append(e.buttons, &watched{
			Button: b,
			edge:   NewEdgeDetector(b.Input.Read()),
		})
	}
	return e, nil
}

// SetLogger sets the logger for the endpoint.
func (e *Endpoint) SetLogger(logger Logger) {
	e.logger = logger
}

// SetRecorder sets the telemetry recorder for press events.
func (e *Endpoint) SetRecorder(recorder telemetry.Recorder) {
	e.recorder = recorder
}

// Conn returns the session handle the next publish will use.
func (e *Endpoint) Conn() session.Conn {
	return e.conn
}

// Presses returns how many presses have been detected.
func (e *Endpoint) Presses() int {
	return e.presses
}

// Run samples the buttons every PollInterval, publishing through conn and
// its replacements, until ctx is cancelled (nil) or a recovery fails.
func (e *Endpoint) Run(ctx context.Context, conn session.Conn) error {
	e.conn = conn

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := e.Poll(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs one loop iteration: every button in order, publishing on
// each new press.
func (e *Endpoint) Poll() error {
	for _, b := range e.buttons {
		if !b.edge.Update(b.Input.Read()) {
			continue
		}

		e.presses++
		e.logger.Info("button pressed",
			"button", b.Name,
			"topic", b.Topic,
			"payload", b.Payload,
		)
		e.recorder.Record(telemetry.Event{
			Kind:    telemetry.KindButtonPressed,
			Device:  e.cfg.DeviceID,
			Subject: b.Name,
			Value:   b.Payload,
		})

		if err := e.publish(b.Button); err != nil {
			return err
		}
	}
	return nil
}

// publish sends one press. On failure the session is recovered once; the
// press itself is not resent.
func (e *Endpoint) publish(b Button) error {
	if e.conn != nil {
		err := e.conn.Publish(b.Topic, []byte(b.Payload), mqtt.QoSAtLeastOnce, false)
		if err == nil {
			return nil
		}
		e.logger.Warn("publish failed, reconnecting",
			"topic", b.Topic,
			"error", err,
		)
		e.recorder.Record(telemetry.Event{
			Kind:    telemetry.KindPublishFailed,
			Device:  e.cfg.DeviceID,
			Subject: b.Topic,
			Value:   b.Payload,
			Err:     err.Error(),
		})
	}

	conn, err := e.sessions.Recover(e.conn)
	if err != nil {
		e.logger.Error("session recovery failed", "error", err)
		return fmt.Errorf("%w: %w", ErrRecoveryFailed, err)
	}
	e.conn = conn
	return nil
}
