package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/pico-link/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "picolink-test",
		},
		KeepAlive: 30,
	}
}

// recordingLogger captures Warn/Error calls.
type recordingLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

// =============================================================================
// Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "pico"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "picolink-test" {
		t.Errorf("ClientID = %q, want picolink-test", opts.ClientID)
	}
	if opts.KeepAlive != 30 {
		t.Errorf("KeepAlive = %d, want 30", opts.KeepAlive)
	}
	if opts.AutoReconnect {
		t.Error("AutoReconnect = true, want false (session manager owns reconnection)")
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, want false")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
	if opts.Username != "pico" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q, want pico/secret", opts.Username, opts.Password)
	}
	if opts.TLSConfig != nil && len(opts.TLSConfig.Certificates) > 0 {
		t.Error("unexpected TLS certificates on plain connection")
	}
}

func TestBuildClientOptions_TLSAndDefaultKeepAlive(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	cfg.KeepAlive = 0

	opts := buildClientOptions(cfg)

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %v, want ssl://127.0.0.1:8883", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below minimum version")
	}
	if opts.KeepAlive != int64(defaultKeepAlive.Seconds()) {
		t.Errorf("KeepAlive = %d, want %v", opts.KeepAlive, defaultKeepAlive)
	}
}

func TestConfigureWill(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureWill(opts, Will{
		Topic:    Topics{}.DeviceStatus("devB"),
		Payload:  []byte(StatusOffline),
		QoS:      QoSAtLeastOnce,
		Retained: true,
	})

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false, want true")
	}
	if opts.WillTopic != "stm/devB/status" {
		t.Errorf("WillTopic = %q, want stm/devB/status", opts.WillTopic)
	}
	if string(opts.WillPayload) != "offline" {
		t.Errorf("WillPayload = %q, want offline", opts.WillPayload)
	}
	if opts.WillQos != 1 || !opts.WillRetained {
		t.Errorf("will qos/retained = %d/%v, want 1/true", opts.WillQos, opts.WillRetained)
	}
}

func TestConfigureWill_EmptyTopicSkipped(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureWill(opts, Will{})

	if opts.WillEnabled {
		t.Error("WillEnabled = true for empty will")
	}
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "command", got: TopicCommand, want: "stm/led/cmd"},
		{name: "hello", got: TopicHello, want: "stm/led/hello"},
		{name: "ack", got: TopicAck, want: "stm/led/ack"},
		{name: "sensor status", got: Topics{}.DeviceStatus("devA"), want: "stm/devA/status"},
		{name: "actuator status", got: Topics{}.DeviceStatus("devB"), want: "stm/devB/status"},
		{name: "all status", got: Topics{}.AllDeviceStatus(), want: "stm/+/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// =============================================================================
// Inbox / CheckMsg Tests
// =============================================================================

func TestCheckMsg_NoClient(t *testing.T) {
	c := newClient(testConfig())

	if err := c.CheckMsg(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CheckMsg() error = %v, want ErrNotConnected", err)
	}
}

func TestCheckMsg_DispatchesOnePerCall(t *testing.T) {
	c := newClient(testConfig())

	var got []string
	handler := func(topic string, payload []byte) error {
		got = append(got, topic+"="+string(payload))
		return nil
	}

	c.enqueue(TopicCommand, []byte("TOGGLE"), handler)
	c.enqueue(TopicCommand, []byte("TOGGLE"), handler)

	if err := c.CheckMsg(); err != nil {
		t.Fatalf("CheckMsg() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("handled %d messages after one CheckMsg, want 1", len(got))
	}

	if err := c.CheckMsg(); err != nil {
		t.Fatalf("CheckMsg() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("handled %d messages after two CheckMsg, want 2", len(got))
	}
	if got[0] != "stm/led/cmd=TOGGLE" {
		t.Errorf("got[0] = %q", got[0])
	}
}

func TestCheckMsg_DrainsBeforeReportingLoss(t *testing.T) {
	c := newClient(testConfig())

	handled := 0
	c.enqueue(TopicCommand, []byte("TOGGLE"), func(string, []byte) error {
		handled++
		return nil
	})
	c.handleConnectionLost(errors.New("EOF"))

	if err := c.CheckMsg(); err != nil {
		t.Fatalf("first CheckMsg() error = %v, want nil while a message is queued", err)
	}
	if handled != 1 {
		t.Errorf("handled = %d, want 1", handled)
	}

	err := c.CheckMsg()
	if !errors.Is(err, ErrConnectionLost) {
		t.Errorf("second CheckMsg() error = %v, want ErrConnectionLost", err)
	}
}

func TestCheckMsg_KeepsFirstLossReason(t *testing.T) {
	c := newClient(testConfig())
	first := errors.New("pingresp not received")

	c.handleConnectionLost(first)
	c.handleConnectionLost(errors.New("later"))

	if err := c.CheckMsg(); !errors.Is(err, first) {
		t.Errorf("CheckMsg() error = %v, want wrapped %v", err, first)
	}
}

func TestCheckMsg_HandlerErrorLogged(t *testing.T) {
	c := newClient(testConfig())
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.enqueue(TopicCommand, []byte("x"), func(string, []byte) error {
		return errors.New("boom")
	})
	if err := c.CheckMsg(); err != nil {
		t.Fatalf("CheckMsg() error = %v", err)
	}

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one handler error", logger.warns)
	}
}

func TestCheckMsg_HandlerPanicRecovered(t *testing.T) {
	c := newClient(testConfig())
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.enqueue(TopicCommand, []byte("x"), func(string, []byte) error {
		panic("handler bug")
	})
	if err := c.CheckMsg(); err != nil {
		t.Fatalf("CheckMsg() error = %v", err)
	}

	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one recovered panic", logger.errors)
	}
}

func TestEnqueue_PayloadCopied(t *testing.T) {
	c := newClient(testConfig())
	payload := []byte("TOGGLE")

	var got string
	c.enqueue(TopicCommand, payload, func(_ string, p []byte) error {
		got = string(p)
		return nil
	})
	payload[0] = 'X'

	_ = c.CheckMsg()
	if got != "TOGGLE" {
		t.Errorf("handler saw %q, want TOGGLE", got)
	}
}

func TestEnqueue_UnblocksOnClose(t *testing.T) {
	c := newClient(testConfig())
	for i := 0; i < inboxSize; i++ {
		c.enqueue(TopicCommand, nil, func(string, []byte) error { return nil })
	}

	done := make(chan struct{})
	go func() {
		c.enqueue(TopicCommand, nil, func(string, []byte) error { return nil })
		close(done)
	}()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	<-done
}

// =============================================================================
// Publish / Subscribe Validation Tests
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := newClient(testConfig())

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{name: "empty topic", topic: "", payload: []byte("x"), qos: 1, want: ErrInvalidTopic},
		{name: "invalid qos", topic: TopicAck, payload: []byte("x"), qos: 3, want: ErrInvalidQoS},
		{name: "oversized payload", topic: TopicAck, payload: make([]byte, maxPayloadSize+1), qos: 1, want: ErrPublishFailed},
		{name: "not connected", topic: TopicAck, payload: []byte("ON"), qos: 1, want: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublishAfterLoss(t *testing.T) {
	c := newClient(testConfig())
	c.handleConnectionLost(errors.New("EOF"))

	err := c.PublishString(TopicCommand, PayloadToggle, QoSAtLeastOnce, false)
	if !errors.Is(err, ErrConnectionLost) {
		t.Errorf("PublishString() error = %v, want ErrConnectionLost", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := newClient(testConfig())
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe(TopicCommand, 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe(TopicCommand, 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe(TopicCommand, 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(disconnected) error = %v, want ErrNotConnected", err)
	}
	if c.HasSubscription(TopicCommand) {
		t.Error("HasSubscription() = true after failed subscribe")
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestCloseIdempotent(t *testing.T) {
	c := newClient(testConfig())

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := c.CheckMsg(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CheckMsg() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	c := newClient(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestDialRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 1 // nothing listens here

	_, err := Dial(cfg, Will{})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Dial() error = %v, want ErrConnectionFailed", err)
	}
}
