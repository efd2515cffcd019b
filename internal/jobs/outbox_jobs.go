package jobs

import (
	"context"

	"eventstaff-backend/internal/logger"
)

// DrainOutbox replays queued offline writes against the backend.
func (jr *JobRunner) DrainOutbox() {
	jr.runWithRecovery("DrainOutbox", func() {
		if jr.services.Outbox == nil {
			logger.Debug("Offline cache disabled, nothing to drain")
			return
		}

		result, err := jr.services.Outbox.Drain(context.Background())
		if err != nil {
			logger.Error("Failed to drain outbox", "error", err)
			return
		}

		if result.Stopped {
			logger.Warn("Backend still unavailable, drain stopped",
				"replayed", result.Replayed, "remaining", result.Remaining)
			return
		}
		if result.Blocked > 0 {
			logger.Warn("Outbox has blocked intents",
				"blocked", result.Blocked, "failed", result.Failed, "remaining", result.Remaining)
		}
		logger.Info("Drained outbox",
			"replayed", result.Replayed, "failed", result.Failed, "remaining", result.Remaining)
	})
}
