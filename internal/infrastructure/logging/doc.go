// Package logging provides structured logging for pico-link endpoints.
//
// This package wraps Go's standard log/slog package so that both endpoint
// roles emit the same diagnostic stream: every press, toggle, publish
// failure and reconnect ends up here, and nowhere else.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger = logger.With("role", cfg.Device.Role, "client_id", cfg.MQTT.Broker.ClientID)
//	logger.Info("button pressed", "button", "button-21")
//	logger.Warn("publish failed, reconnecting", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
