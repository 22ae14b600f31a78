package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nerrad567/pico-link/internal/actuator"
	"github.com/nerrad567/pico-link/internal/gpio"
	"github.com/nerrad567/pico-link/internal/infrastructure/config"
	"github.com/nerrad567/pico-link/internal/infrastructure/logging"
	"github.com/nerrad567/pico-link/internal/sensor"
	"github.com/nerrad567/pico-link/internal/session"
	"github.com/nerrad567/pico-link/internal/session/sessiontest"
	"github.com/nerrad567/pico-link/internal/telemetry"
)

// loadTestConfig writes a minimal config for role and loads it.
func loadTestConfig(t *testing.T, role string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "device:\n  role: " + role + "\ngpio:\n  driver: sim\nlogging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func testManager(dialer *sessiontest.Dialer, deviceID string) *session.Manager {
	return session.NewManager(session.Config{DeviceID: deviceID}, dialer.Dial, &sessiontest.Network{})
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("PICOLINK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidRole verifies validation errors stop startup.
func TestRun_InvalidRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("device:\n  role: blinker\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("PICOLINK_CONFIG", path)

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail with an unknown role")
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("PICOLINK_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("PICOLINK_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestNewEndpoint_Sensor(t *testing.T) {
	cfg := loadTestConfig(t, "sensor")
	dialer := &sessiontest.Dialer{}
	manager := testManager(dialer, cfg.Device.ID)

	ep, err := newEndpoint(cfg, gpio.NewSim(), manager, logging.Default(), telemetry.Nop{})
	if err != nil {
		t.Fatalf("newEndpoint() error = %v", err)
	}
	if _, ok := ep.(*sensor.Endpoint); !ok {
		t.Fatalf("newEndpoint() = %T, want *sensor.Endpoint", ep)
	}

	// The sensor subscribes to nothing.
	if _, err := manager.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	want := []string{"publish stm/devA/status online"}
	if got := dialer.Conns[0].Operations(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestNewEndpoint_Actuator(t *testing.T) {
	cfg := loadTestConfig(t, "actuator")
	dialer := &sessiontest.Dialer{}
	manager := testManager(dialer, cfg.Device.ID)

	ep, err := newEndpoint(cfg, gpio.NewSim(), manager, logging.Default(), telemetry.Nop{})
	if err != nil {
		t.Fatalf("newEndpoint() error = %v", err)
	}
	if _, ok := ep.(*actuator.Endpoint); !ok {
		t.Fatalf("newEndpoint() = %T, want *actuator.Endpoint", ep)
	}

	if _, err := manager.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	want := []string{"subscribe stm/led/cmd", "publish stm/devB/status online"}
	if got := dialer.Conns[0].Operations(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestNewEndpoint_UnknownRole(t *testing.T) {
	cfg := loadTestConfig(t, "sensor")
	cfg.Device.Role = "blinker"

	if _, err := newEndpoint(cfg, gpio.NewSim(), testManager(&sessiontest.Dialer{}, "x"), logging.Default(), telemetry.Nop{}); err == nil {
		t.Error("newEndpoint() should fail for an unknown role")
	}
}

func TestOpenSinks_Disabled(t *testing.T) {
	cfg := loadTestConfig(t, "sensor")

	recorder, closeSinks, err := openSinks(context.Background(), cfg, logging.Default())
	if err != nil {
		t.Fatalf("openSinks() error = %v", err)
	}
	defer closeSinks()

	if _, ok := recorder.(telemetry.Nop); !ok {
		t.Errorf("recorder = %T, want telemetry.Nop", recorder)
	}
}

func TestOpenSinks_Journal(t *testing.T) {
	cfg := loadTestConfig(t, "actuator")
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")

	recorder, closeSinks, err := openSinks(context.Background(), cfg, logging.Default())
	if err != nil {
		t.Fatalf("openSinks() error = %v", err)
	}
	recorder.Record(telemetry.Event{Kind: telemetry.KindLEDToggled, Device: "devB", Value: "ON"})
	closeSinks()

	if _, err := os.Stat(cfg.Journal.Path); err != nil {
		t.Errorf("journal file missing: %v", err)
	}
}

func TestOpenSinks_InfluxUnreachable(t *testing.T) {
	cfg := loadTestConfig(t, "sensor")
	cfg.InfluxDB.Enabled = true
	cfg.InfluxDB.URL = "http://127.0.0.1:59999"

	if _, _, err := openSinks(context.Background(), cfg, logging.Default()); err == nil {
		t.Error("openSinks() should fail when InfluxDB is unreachable")
	}
}
