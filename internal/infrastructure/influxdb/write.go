package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/pico-link/internal/telemetry"
)

// measurementLinkEvents holds every endpoint event.
const measurementLinkEvents = "link_events"

// Record implements telemetry.Recorder. Events recorded while disconnected
// are dropped.
func (c *Client) Record(e telemetry.Event) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(eventPoint(e))
}

// eventPoint maps an event to a link_events point.
//
// Tags are the low-cardinality parts (kind, device, subject); the value and
// failure text are fields. Every point carries count=1 so presses and
// toggles can be summed per window.
func eventPoint(e telemetry.Event) *write.Point {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tags := map[string]string{
		"kind":   string(e.Kind),
		"device": e.Device,
	}
	if e.Subject != "" {
		tags["subject"] = e.Subject
	}

	fields := map[string]interface{}{
		"count": int64(1),
	}
	if e.Value != "" {
		fields["value"] = e.Value
	}
	if e.Err != "" {
		fields["error"] = e.Err
	}

	return write.NewPoint(measurementLinkEvents, tags, fields, at)
}
