package service

import (
	"context"
	"sort"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/session"
	"eventstaff-backend/internal/utils"
)

const defaultRankingLimit = 10

type reportService struct {
	eventRepo repository.EventRepository
	userRepo  repository.UserRepository
}

func NewReportService(eventRepo repository.EventRepository, userRepo repository.UserRepository) ReportService {
	return &reportService{eventRepo: eventRepo, userRepo: userRepo}
}

// Summary totals the cost and shifts of finished events.
func (s *reportService) Summary(ctx context.Context, actor session.Session) (*domain.ReportSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, domain.EventFilter{Status: domain.EventStatusDone})
	if err != nil {
		return nil, err
	}
	staff, err := s.userRepo.List(ctx, domain.UserRoleStaff)
	if err != nil {
		return nil, err
	}

	summary := &domain.ReportSummary{FinishedEvents: len(events)}
	for _, e := range events {
		for _, f := range e.Functions {
			summary.TotalCost += f.Pay * float64(f.Filled)
			summary.TotalShiftsWorked += f.Filled
		}
	}
	ratings := make([]float64, 0, len(staff))
	for _, u := range staff {
		ratings = append(ratings, u.Rating)
	}
	summary.AverageRating = utils.MeanRating(ratings)
	return summary, nil
}

// Ranking orders staff by rating, best first. Ties keep name order.
func (s *reportService) Ranking(ctx context.Context, actor session.Session, limit int) ([]domain.RankingEntry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	staff, err := s.userRepo.List(ctx, domain.UserRoleStaff)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(staff, func(i, j int) bool { return staff[i].Rating > staff[j].Rating })
	if len(staff) > limit {
		staff = staff[:limit]
	}
	out := make([]domain.RankingEntry, 0, len(staff))
	for i, u := range staff {
		out = append(out, domain.RankingEntry{
			Position: i + 1,
			UserID:   u.ID,
			Name:     u.Name,
			Avatar:   u.Avatar,
			Rating:   u.Rating,
		})
	}
	return out, nil
}
