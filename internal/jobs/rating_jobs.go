package jobs

import (
	"context"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
)

// RecomputeRatings rebuilds every staff rating from their latest evaluation.
func (jr *JobRunner) RecomputeRatings() {
	jr.runWithRecovery("RecomputeRatings", func() {
		ctx := context.Background()

		users, err := jr.services.Users.List(ctx, domain.UserRoleStaff)
		if err != nil {
			logger.Error("Failed to list staff for rating recompute", "error", err)
			return
		}

		count := 0
		for _, u := range users {
			if _, err := jr.services.Evaluations.RecomputeRating(ctx, u.ID); err != nil {
				logger.Error("Failed to recompute rating", "user_id", u.ID, "error", err)
				continue
			}
			count++
		}

		logger.Info("Recomputed staff ratings", "count", count, "total", len(users))
	})
}
