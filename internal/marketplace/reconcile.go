package marketplace

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/metrics"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

// Reconcile repairs requests left accepted without a booking, e.g. after a
// crash between selection and booking creation. It returns how many requests
// were repaired. Failures on single requests do not stop the sweep.
func (e *Engine) Reconcile(ctx context.Context) (int, error) {
	ctx, span := e.span(ctx, "Reconcile")
	defer span.End()

	orphans, err := e.store.ListOrphanedRequests(ctx, e.now().Add(-e.grace))
	if err != nil {
		return 0, fail(span, err)
	}

	var (
		repaired int
		errs     []error
	)
	for _, r := range orphans {
		err := e.store.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
			_, _, err := e.deriveBooking(ctx, tx, r)
			return err
		})
		if err != nil {
			e.log.Warn("orphaned request repair failed", zap.String("request_id", r.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		repaired++
		metrics.ReconciledRequests.Inc()
		e.log.Info("orphaned request repaired", zap.String("request_id", r.ID))
	}
	return repaired, fail(span, errors.Join(errs...))
}

// RunReconciler sweeps every interval until ctx is done.
func (e *Engine) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := e.Reconcile(ctx); err != nil {
				e.log.Error("reconcile sweep", zap.Int("repaired", n), zap.Error(err))
			} else if n > 0 {
				e.log.Info("reconcile sweep", zap.Int("repaired", n))
			}
		}
	}
}
