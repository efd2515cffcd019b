package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/session"
	"eventstaff-backend/internal/utils"

	"github.com/google/uuid"
)

// PointsPerShift are awarded when an event evaluation confirms presence.
const PointsPerShift = 100

type evaluationService struct {
	evalRepo repository.EvaluationRepository
	userRepo repository.UserRepository
	appRepo  repository.ApplicationRepository
	events   EventService
	emitter  NotificationEmitter
}

func NewEvaluationService(
	evalRepo repository.EvaluationRepository,
	userRepo repository.UserRepository,
	appRepo repository.ApplicationRepository,
	events EventService,
	emitter NotificationEmitter,
) EvaluationService {
	return &evaluationService{
		evalRepo: evalRepo,
		userRepo: userRepo,
		appRepo:  appRepo,
		events:   events,
		emitter:  emitter,
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, actor session.Session, eventID, userID string, scores domain.Scores, presence bool, notes string) (*domain.Evaluation, error) {
	logger.EnterMethod("evaluationService.Evaluate", "eventID", eventID, "userID", userID)
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := utils.ValidateScores(scores); err != nil {
		return nil, err
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusDone {
		return nil, domain.ErrEventNotDone
	}

	apps, err := s.appRepo.List(ctx, domain.ApplicationFilter{
		EventID: eventID,
		UserID:  userID,
		Status:  domain.ApplicationStatusApproved,
	})
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, domain.ErrNotStaffed
	}

	if _, err := s.evalRepo.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, domain.ErrEvaluationExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	eval, err := s.record(ctx, actor, eventID, userID, scores, presence, notes)
	if err != nil {
		logger.ExitMethodWithError("evaluationService.Evaluate", err, "eventID", eventID, "userID", userID)
		return nil, err
	}
	logger.ExitMethod("evaluationService.Evaluate", "evaluationID", eval.ID, "average", eval.Average)
	return eval, nil
}

func (s *evaluationService) UpdatePerformance(ctx context.Context, actor session.Session, userID string, scores domain.Scores, notes string) (*domain.Evaluation, error) {
	logger.EnterMethod("evaluationService.UpdatePerformance", "userID", userID)
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := utils.ValidateScores(scores); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	eval, err := s.record(ctx, actor, "", userID, scores, false, notes)
	if err != nil {
		logger.ExitMethodWithError("evaluationService.UpdatePerformance", err, "userID", userID)
		return nil, err
	}
	logger.ExitMethod("evaluationService.UpdatePerformance", "evaluationID", eval.ID, "average", eval.Average)
	return eval, nil
}

// record appends the evaluation and refreshes the user's rating projection.
func (s *evaluationService) record(ctx context.Context, actor session.Session, eventID, userID string, scores domain.Scores, presence bool, notes string) (*domain.Evaluation, error) {
	eval := &domain.Evaluation{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Scores:    scores,
		Presence:  presence,
		Notes:     strings.TrimSpace(notes),
		Average:   utils.AverageScore(scores),
		CreatedBy: actor.UserID,
		CreatedOn: time.Now().UTC(),
	}
	if err := s.evalRepo.Create(ctx, eval); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	project(user, eval)
	if eventID != "" && presence {
		user.Points += PointsPerShift
	}
	user.UpdatedOn = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, Notice{
		Kind:         domain.NotificationKindEvaluated,
		Type:         domain.NotificationTypeInfo,
		TargetRole:   user.Role,
		TargetUserID: user.ID,
		Data:         map[string]any{"Average": eval.Average},
	})
	return eval, nil
}

func (s *evaluationService) ListEvaluations(ctx context.Context, actor session.Session, userID string) ([]domain.Evaluation, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if !actor.IsAdmin() && actor.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return s.evalRepo.ListByUser(ctx, userID)
}

// RecomputeRating rebuilds rating and metrics from the evaluation log. Users
// without evaluations get the registration default back.
func (s *evaluationService) RecomputeRating(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	evals, err := s.evalRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(evals) == 0 {
		user.Rating = domain.DefaultRating
		user.Metrics = nil
	} else {
		project(user, &evals[0])
	}
	user.UpdatedOn = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("Rating recomputed", "user_id", userID, "rating", user.Rating, "evaluations", len(evals))
	return user, nil
}

// project copies the latest evaluation onto the user.
func project(user *domain.User, latest *domain.Evaluation) {
	user.Rating = latest.Average
	user.Metrics = &domain.UserMetrics{
		Punctuality:  latest.Punctuality,
		Posture:      latest.Posture,
		Productivity: latest.Productivity,
		Agility:      latest.Agility,
	}
}
