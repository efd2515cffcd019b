package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/session"
	"eventstaff-backend/internal/utils"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: user, Level: utils.LevelFor(user.Points)}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	logger.EnterMethod("userService.UpdateProfile", "userID", userID)
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		user.Name = name
	}
	if update.Phone != nil {
		user.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Avatar != nil {
		user.Avatar = strings.TrimSpace(*update.Avatar)
	}
	if update.Type != nil {
		switch *update.Type {
		case domain.UserTypeFixed, domain.UserTypeFreelance, domain.UserTypeDaily:
			user.Type = *update.Type
		default:
			return nil, fmt.Errorf("%w: unknown staff type %q", domain.ErrValidation, *update.Type)
		}
	}
	if update.Skills != nil {
		user.Skills = update.Skills
	}
	if update.Uniforms != nil {
		user.Uniforms = update.Uniforms
	}
	if update.PixKey != nil {
		user.PixKey = strings.TrimSpace(*update.PixKey)
	}
	user.UpdatedOn = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.ExitMethodWithError("userService.UpdateProfile", err, "userID", userID)
		return nil, err
	}
	logger.ExitMethod("userService.UpdateProfile", "userID", userID)
	return &domain.Profile{User: user, Level: utils.LevelFor(user.Points)}, nil
}

func (s *userService) ListStaff(ctx context.Context, actor session.Session) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx, domain.UserRoleStaff)
}

func (s *userService) DeleteUser(ctx context.Context, actor session.Session, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == userID {
		return fmt.Errorf("%w: admins cannot delete themselves", domain.ErrForbidden)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	logger.Info("User deleted", "user_id", userID, "by", actor.UserID)
	return nil
}
