package jobs

import (
	"context"
	"time"

	"github.com/ContextLab/lab-manual/internal/logger"
)

// PurgeStalePartials removes partial workflow submissions whose second
// message never arrived.
func (jr *JobRunner) PurgeStalePartials() {
	jr.runWithRecovery("PurgeStalePartials", func() {
		ctx := context.Background()
		cutoff := time.Now().Add(-jr.config.Retention.PartialTTL())

		removed, err := jr.store.PartialRepository.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to purge stale partials", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("Purged stale partial submissions", "count", removed)
		}
	})
}

// PurgeStaleRequests removes terminal onboarding requests and processed
// offboarding requests past their retention windows.
func (jr *JobRunner) PurgeStaleRequests() {
	jr.runWithRecovery("PurgeStaleRequests", func() {
		ctx := context.Background()

		cutoff := time.Now().Add(-jr.config.Retention.RequestTTL())
		removed, err := jr.store.OnboardingRepository.PurgeTerminalOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to purge terminal onboarding requests", "error", err)
		} else if removed > 0 {
			logger.Info("Purged terminal onboarding requests", "count", removed)
		}

		cutoff = time.Now().Add(-jr.config.Retention.OffboardTTL())
		removed, err = jr.store.OffboardingRepository.PurgeProcessedOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to purge processed offboarding requests", "error", err)
		} else if removed > 0 {
			logger.Info("Purged processed offboarding requests", "count", removed)
		}

		// Step executions outlive their request only when the workflow run
		// was abandoned; sweep them on the request window.
		cutoff = time.Now().Add(-jr.config.Retention.RequestTTL())
		removed, err = jr.store.StepRepository.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to purge stale step executions", "error", err)
		} else if removed > 0 {
			logger.Info("Purged stale step executions", "count", removed)
		}
	})
}
