package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/security"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt refuses longer input.
	maxPasswordLength = 72
)

type authService struct {
	userRepo repository.UserRepository
	tokens   security.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, tokens security.TokenManager) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, name, email, phone, password string) (*domain.User, string, error) {
	logger.EnterMethod("authService.Register", "email", email)
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: name and a valid email are required", domain.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must have at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return nil, "", fmt.Errorf("%w: password must have at most %d bytes", domain.ErrValidation, maxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.UserRoleStaff,
		Avatar:       defaultAvatar(name),
		Phone:        strings.TrimSpace(phone),
		Type:         domain.UserTypeFreelance,
		Rating:       domain.DefaultRating,
		CreatedOn:    now,
		UpdatedOn:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.ExitMethodWithError("authService.Register", err, "email", email)
		return nil, "", err
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, "", err
	}
	logger.ExitMethod("authService.Register", "userID", user.ID)
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	logger.EnterMethod("authService.Login", "email", email)
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, "", err
	}
	logger.ExitMethod("authService.Login", "userID", user.ID)
	return user, token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func defaultAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}
