package usecase

import (
	"context"
	"fmt"
	"time"

	"FolioPull/internal/domain/models"
	drepo "FolioPull/internal/domain/repository"
	xlogger "FolioPull/pkg/logger"
)

// SnapshotRecorder routes valuation snapshots to the configured sink.
type SnapshotRecorder struct {
	sink    drepo.SnapshotSink
	metrics drepo.Metrics
	logger  *xlogger.Logger
	timeout time.Duration
}

// NewSnapshotRecorder creates a SnapshotRecorder. A nil sink records nothing.
func NewSnapshotRecorder(
	sink drepo.SnapshotSink,
	metrics drepo.Metrics,
	logger *xlogger.Logger,
	timeout time.Duration,
) *SnapshotRecorder {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SnapshotRecorder{
		sink:    sink,
		metrics: metrics,
		logger:  logger,
		timeout: timeout,
	}
}

// Record writes one snapshot. The write outlives the caller's cancellation but
// not the recorder timeout.
func (r *SnapshotRecorder) Record(ctx context.Context, snap *models.ValuationSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if r.sink == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.sink.Record(ctx, snap); err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("sink")
		}
		r.logger.Warn("valuation snapshot not recorded",
			xlogger.String("session", snap.SessionID),
			xlogger.Error(err),
		)
		return fmt.Errorf("record snapshot: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordLatency("snapshot_record", time.Since(start).Seconds())
	}
	return nil
}

// Close closes the underlying sink if available.
func (r *SnapshotRecorder) Close() error {
	if r.sink == nil {
		return nil
	}
	return r.sink.Close()
}
