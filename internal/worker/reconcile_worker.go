package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/metrics"
	"github.com/dustin/go-humanize"
)

// ReconcileWorker closes the gap left by uploads whose blob was written but
// whose metadata row was not. Blobs no row references are deleted once they
// are older than the grace period; rows whose blob is gone are reported.
type ReconcileWorker struct {
	documents domain.DocumentRepository
	blobs     domain.BlobStore
	logger    *slog.Logger
	interval  time.Duration
	grace     time.Duration
	now       func() time.Time
}

// ReconcileReport summarizes one sweep
type ReconcileReport struct {
	BlobsScanned   int
	OrphansDeleted []string
	OrphansKept    []string // unreferenced but still inside the grace period
	MissingBlobs   []string
	BytesReclaimed int64
}

// NewReconcileWorker creates a new reconciliation worker
func NewReconcileWorker(
	documents domain.DocumentRepository,
	blobs domain.BlobStore,
	logger *slog.Logger,
	interval time.Duration,
	grace time.Duration,
) *ReconcileWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileWorker{
		documents: documents,
		blobs:     blobs,
		logger:    logger.With(slog.String("worker", "reconcile")),
		interval:  interval,
		grace:     grace,
		now:       time.Now,
	}
}

// Start runs a sweep every interval until ctx is cancelled
func (w *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reconcile worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("grace", w.grace),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("reconcile sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single sweep
func (w *ReconcileWorker) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	refs, err := w.documents.ListFileRefs(ctx)
	if err != nil {
		return nil, err
	}
	blobs, err := w.blobs.List(ctx)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(refs))
	for _, r := range refs {
		referenced[r] = true
	}

	report := &ReconcileReport{BlobsScanned: len(blobs)}
	stored := make(map[string]bool, len(blobs))
	cutoff := w.now().Add(-w.grace)

	var candidates []domain.BlobInfo
	for _, b := range blobs {
		stored[b.Key] = true
		if referenced[b.Key] {
			continue
		}
		if b.ModifiedAt.After(cutoff) {
			report.OrphansKept = append(report.OrphansKept, b.Key)
			continue
		}
		candidates = append(candidates, b)
	}

	// An upload may have pointed a row at a candidate since refs were listed
	if len(candidates) > 0 {
		latest, err := w.documents.ListFileRefs(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range latest {
			referenced[r] = true
		}
	}

	for _, b := range candidates {
		if referenced[b.Key] {
			continue
		}
		if err := w.blobs.Delete(ctx, b.Key); err != nil {
			w.logger.Error("failed to delete orphan blob",
				slog.String("key", b.Key),
				slog.String("error", err.Error()),
			)
			metrics.ObserveReconcile("orphan_blob", "error")
			continue
		}
		report.OrphansDeleted = append(report.OrphansDeleted, b.Key)
		report.BytesReclaimed += b.Size
		metrics.ObserveReconcile("orphan_blob", "deleted")
		w.logger.Info("deleted orphan blob",
			slog.String("key", b.Key),
			slog.Time("modified_at", b.ModifiedAt),
		)
	}

	for _, r := range refs {
		if stored[r] {
			continue
		}
		report.MissingBlobs = append(report.MissingBlobs, r)
		metrics.ObserveReconcile("missing_blob", "reported")
		w.logger.Warn("document row references a missing blob", slog.String("key", r))
	}

	w.logger.Info("reconcile sweep finished",
		slog.Int("blobs_scanned", report.BlobsScanned),
		slog.Int("orphans_deleted", len(report.OrphansDeleted)),
		slog.Int("orphans_kept", len(report.OrphansKept)),
		slog.Int("missing_blobs", len(report.MissingBlobs)),
		slog.String("reclaimed", humanize.Bytes(uint64(report.BytesReclaimed))),
	)
	return report, nil
}
