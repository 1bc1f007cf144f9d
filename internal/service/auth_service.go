package service

import (
	"context"
	"strings"
	"time"

	"github.com/zornyy/photoCloud/internal/model"
	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
	"github.com/zornyy/photoCloud/internal/pkg/password"
	"github.com/zornyy/photoCloud/internal/pkg/timeutil"
	"github.com/zornyy/photoCloud/internal/pkg/token"
	"github.com/zornyy/photoCloud/internal/repo"
)

type AuthService struct {
	users          *repo.UserRepo
	jwtSecret      []byte
	jwtTTL         time.Duration
	defaultQuotaMB int64
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration, defaultQuotaMB int64) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl, defaultQuotaMB: defaultQuotaMB}
}

// Register creates an account. The duplicate pre-checks exist only to name
// the colliding field; the users table constraints are what make a
// concurrent duplicate lose.
func (s *AuthService) Register(ctx context.Context, username, email, plainPassword, fullName string) (*model.User, error) {
	return s.RegisterWithQuota(ctx, username, email, plainPassword, fullName, s.defaultQuotaMB)
}

func (s *AuthService) RegisterWithQuota(ctx context.Context, username, email, plainPassword, fullName string, quotaMB int64) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, appErr.ErrInvalid
	}
	if err := password.Validate(plainPassword); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, appErr.ErrDuplicateUsername
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, appErr.ErrDuplicateEmail
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:             newID(),
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		FullName:       fullName,
		StorageQuotaMB: quotaMB,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns the account and a fresh session token. Unknown username and
// wrong password share one error so callers cannot tell which failed.
func (s *AuthService) Login(ctx context.Context, username, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	tok, err := token.Generate(user.ID, user.Username, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, tok, nil
}
