// pico-link - MQTT button and LED endpoints
//
// One binary runs either endpoint, selected by device.role in the config:
//   - sensor: publishes TOGGLE/HELLO when its buttons are pressed
//   - actuator: flips an LED on TOGGLE and acknowledges ON/OFF
//
// Both keep a retained online/offline presence on stm/<device>/status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/pico-link/internal/actuator"
	"github.com/nerrad567/pico-link/internal/gpio"
	"github.com/nerrad567/pico-link/internal/infrastructure/config"
	"github.com/nerrad567/pico-link/internal/infrastructure/database"
	"github.com/nerrad567/pico-link/internal/infrastructure/influxdb"
	"github.com/nerrad567/pico-link/internal/infrastructure/logging"
	"github.com/nerrad567/pico-link/internal/infrastructure/mqtt"
	"github.com/nerrad567/pico-link/internal/journal"
	"github.com/nerrad567/pico-link/internal/network"
	"github.com/nerrad567/pico-link/internal/sensor"
	"github.com/nerrad567/pico-link/internal/session"
	"github.com/nerrad567/pico-link/internal/telemetry"
	"github.com/nerrad567/pico-link/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// endpoint is the role-specific loop.
type endpoint interface {
	Run(ctx context.Context, conn session.Conn) error
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Startup order: config, logger, optional sinks, GPIO, network, session
// manager, endpoint, first session, health check. The endpoint is built
// before the first Open so the actuator's subscription is in place for it.
//
// Returns:
//   - error: nil on signal shutdown, or the failure that stopped the
//     endpoint (for the sensor, a failed session recovery)
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting pico-link",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With(
		"role", cfg.Device.Role,
		"device", cfg.Device.ID,
	)
	log.Info("configuration loaded", "path", configPath)

	recorder, closeSinks, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	driver, err := gpio.NewDriver(cfg.GPIO.Driver)
	if err != nil {
		return fmt.Errorf("initialising GPIO: %w", err)
	}
	log.Info("GPIO ready", "driver", cfg.GPIO.Driver)

	manager := session.NewManager(session.Config{
		ClientID:            cfg.MQTT.Broker.ClientID,
		DeviceID:            cfg.Device.ID,
		NetworkPollInterval: cfg.GetNetworkPollInterval(),
	}, newDialer(cfg.MQTT, log), network.NewMonitor(cfg.Network.Interface))
	manager.SetLogger(log.With("component", "session"))
	manager.SetRecorder(recorder)

	if err := manager.EstablishNetwork(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown before network came up")
			return nil
		}
		return err
	}

	ep, err := newEndpoint(cfg, driver, manager, log, recorder)
	if err != nil {
		return err
	}

	conn, err := manager.Open()
	if err != nil {
		return fmt.Errorf("opening MQTT session: %w", err)
	}
	defer func() {
		log.Info("closing MQTT session")
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing MQTT session", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"status_topic", manager.StatusTopic(),
	)

	if err := manager.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, entering loop",
		"poll_interval", cfg.GetPollInterval(),
	)
	if err := ep.Run(ctx, conn); err != nil {
		return fmt.Errorf("%s endpoint stopped: %w", cfg.Device.Role, err)
	}

	log.Info("shutdown signal received, pico-link stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PICOLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PICOLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// newDialer returns the session dialer: one fresh mqtt.Client per session.
func newDialer(cfg config.MQTTConfig, log *logging.Logger) session.Dialer {
	return func(will mqtt.Will) (session.Conn, error) {
		client, err := mqtt.Dial(cfg, will)
		if err != nil {
			return nil, err
		}
		client.SetLogger(log.With("component", "mqtt"))
		return client, nil
	}
}

// newEndpoint builds the loop for cfg.Device.Role on the given pins.
func newEndpoint(cfg *config.Config, driver gpio.Driver, manager *session.Manager, log *logging.Logger, recorder telemetry.Recorder) (endpoint, error) {
	switch cfg.Device.Role {
	case config.RoleSensor:
		buttons := make([]sensor.Button, 0, len(cfg.GPIO.Buttons))
		for _, b := range cfg.GPIO.Buttons {
			in, err := driver.Input(b.Pin)
			if err != nil {
				return nil, fmt.Errorf("button %s: %w", b.Name, err)
			}
			buttons = append(buttons, sensor.Button{Name: b.Name, Topic: b.Topic, Payload: b.Payload, Input: in})
		}

		ep, err := sensor.New(sensor.Config{
			DeviceID:     cfg.Device.ID,
			PollInterval: cfg.GetPollInterval(),
		}, buttons, manager)
		if err != nil {
			return nil, err
		}
		ep.SetLogger(log.With("component", "sensor"))
		ep.SetRecorder(recorder)
		return ep, nil

	case config.RoleActuator:
		led, err := driver.Output(cfg.GPIO.LEDPin, false)
		if err != nil {
			return nil, fmt.Errorf("led: %w", err)
		}

		ep, err := actuator.New(actuator.Config{
			DeviceID:     cfg.Device.ID,
			PollInterval: cfg.GetPollInterval(),
			RetryDelay:   cfg.GetRetryDelay(),
		}, led, manager)
		if err != nil {
			return nil, err
		}
		ep.SetLogger(log.With("component", "actuator"))
		ep.SetRecorder(recorder)
		return ep, nil

	default:
		return nil, fmt.Errorf("unknown role %q", cfg.Device.Role)
	}
}

// openSinks connects the enabled telemetry sinks.
//
// Returns:
//   - telemetry.Recorder: Fan-out over the enabled sinks, Nop if none
//   - func(): Closes every opened sink, in reverse order
//   - error: If an enabled sink cannot be opened
func openSinks(ctx context.Context, cfg *config.Config, log *logging.Logger) (telemetry.Recorder, func(), error) {
	var recorders []telemetry.Recorder
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Journal.Enabled {
		db, err := database.Open(cfg.Journal)
		if err != nil {
			return nil, nil, fmt.Errorf("opening journal: %w", err)
		}
		closers = append(closers, func() {
			log.Info("closing journal")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		})

		if err := db.Migrate(ctx, migrations.FS); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("running journal migrations: %w", err)
		}
		if err := db.HealthCheck(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}

		recorders = append(recorders, journal.NewRecorder(journal.NewSQLiteRepository(db.DB), log))
		log.Info("journal ready", "path", db.Path())
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		closers = append(closers, func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		})

		recorders = append(recorders, influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	return telemetry.New(recorders...), closeAll, nil
}
