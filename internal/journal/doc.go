// Package journal keeps a local SQLite history of endpoint events.
//
// The Recorder adapter makes the journal a telemetry.Recorder, so every
// press, toggle and session change lands in the link_events table next to
// the device. It is write-mostly history for diagnosing flaky links; the
// endpoints never read it back.
package journal
