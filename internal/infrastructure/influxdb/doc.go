// Package influxdb is the optional time-series sink for endpoint events.
//
// Every telemetry.Event becomes one point in the link_events measurement,
// tagged by kind and device. A dashboard can then plot presses per minute
// next to how often sessions had to be rebuilt.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Warn("influxdb write failed", "error", err) })
//
//	recorder := telemetry.New(client)
//
// Writes are batched and asynchronous, so Record never blocks the endpoint
// loop. Write failures arrive through the SetOnError callback.
package influxdb
