package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService covers the admin side of customer accounts.
type UserService interface {
	ListUsers(ctx context.Context, search string, page, limit int) (*models.UserPage, error)
	ToggleBlock(ctx context.Context, id string) (*models.BlockResult, error)
	// IsBlocked reports whether userID may no longer use the storefront.
	// Accounts the storefront has not mirrored yet are not blocked.
	IsBlocked(ctx context.Context, userID string) (bool, error)
}

type userServiceImpl struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewUserService(repo repository.UserRepository, logger *zap.Logger) UserService {
	return &userServiceImpl{repo: repo, logger: logger}
}

func (s *userServiceImpl) ListUsers(ctx context.Context, search string, page, limit int) (*models.UserPage, error) {
	users, total, err := s.repo.FindAll(ctx, strings.TrimSpace(search), page, limit)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, apperrors.Internal("Failed to list users", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return &models.UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

// ToggleBlock flips the block flag of a non-admin account.
func (s *userServiceImpl) ToggleBlock(ctx context.Context, id string) (*models.BlockResult, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		s.logger.Error("Failed to load user", zap.String("user_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to load user", err)
	}
	if user.Role == "admin" {
		return nil, apperrors.ErrCannotBlockAdmin
	}

	blocked := !user.IsBlocked
	if err := s.repo.SetBlocked(ctx, id, blocked); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("Failed to update user", zap.String("user_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to update user", err)
	}

	verb := "unblocked"
	if blocked {
		verb = "blocked"
	}
	s.logger.Info("User block toggled", zap.String("user_id", id), zap.Bool("blocked", blocked))
	return &models.BlockResult{IsBlocked: blocked, Message: fmt.Sprintf("User %s", verb)}, nil
}

func (s *userServiceImpl) IsBlocked(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsBlocked, nil
}
