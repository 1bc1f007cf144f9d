package service

import (
	"context"
	"strings"

	"github.com/zornyy/photoCloud/internal/model"
	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
	"github.com/zornyy/photoCloud/internal/pkg/timeutil"
	"github.com/zornyy/photoCloud/internal/repo"
)

type UserService struct {
	users *repo.UserRepo
}

func NewUserService(users *repo.UserRepo) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies the provided fields only. An email belonging to a
// different account fails with ErrDuplicateEmail; the pre-check gives the
// friendly path and the unique constraint backstops the race.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, fullName, email *string) (*model.User, error) {
	if fullName == nil && email == nil {
		return s.users.GetByID(ctx, userID)
	}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			return nil, appErr.ErrInvalid
		}
		email = &trimmed
		existing, err := s.users.GetByEmail(ctx, trimmed)
		if err != nil && !appErr.IsNotFound(err) {
			return nil, err
		}
		if err == nil && existing.ID != userID {
			return nil, appErr.ErrDuplicateEmail
		}
	}
	if err := s.users.UpdateProfile(ctx, userID, fullName, email, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}
