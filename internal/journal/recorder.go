package journal

import (
	"context"
	"time"

	"github.com/nerrad567/pico-link/internal/telemetry"
)

// defaultWriteTimeout bounds one journal insert.
const defaultWriteTimeout = 2 * time.Second

// Logger is the subset of logging.Logger the recorder needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder writes telemetry events to a Repository.
//
// Inserts are synchronous, bounded by a short timeout, and failures are
// logged and dropped: a broken journal must not stall the endpoint loop.
type Recorder struct {
	repo    Repository
	logger  Logger
	timeout time.Duration
}

// NewRecorder creates a Recorder. logger may be nil.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger, timeout: defaultWriteTimeout}
}

// Record implements telemetry.Recorder.
func (r *Recorder) Record(e telemetry.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	entry := &Entry{
		Kind:       e.Kind,
		Device:     e.Device,
		Subject:    e.Subject,
		Value:      e.Value,
		Error:      e.Err,
		OccurredAt: e.At,
	}
	if err := r.repo.Create(ctx, entry); err != nil && r.logger != nil {
		r.logger.Warn("journal write failed", "kind", string(e.Kind), "error", err)
	}
}
