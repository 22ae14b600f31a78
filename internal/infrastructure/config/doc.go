// Package config handles loading and validating pico-link endpoint configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (PICOLINK_*)
//   - Role defaults for the sensor (PicoA/devA) and actuator (PicoB/devB)
//   - Validation of required fields
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - Network credentials are owned by the host OS and never appear here
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Role)
package config
