package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// GrantReconciler is satisfied by organizations.Service.
type GrantReconciler interface {
	ReconcileGrants(ctx context.Context) (int, error)
}

// ReconcileGrants runs one pass and logs the outcome.
func ReconcileGrants(ctx context.Context, r GrantReconciler) error {
	start := time.Now()
	changed, err := r.ReconcileGrants(ctx)
	if err != nil {
		log.Error().Err(err).Int("changed", changed).Msg("feature grant reconciliation failed")
		return err
	}
	log.Info().Int("changed", changed).Dur("duration", time.Since(start)).Msg("feature grants reconciled")
	return nil
}

// RunReconciler reconciles once immediately and then every interval until
// ctx is cancelled.
func RunReconciler(ctx context.Context, r GrantReconciler, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ReconcileGrants(ctx, r)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ReconcileGrants(ctx, r)
		}
	}
}
