package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/RavenLB/E-commerce/internal/auth"
	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/repository"
)

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	Issue(userID int64) (string, error)
	Parse(token string) (int64, error)
}

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	User        *entity.User `json:"user"`
}

// AuthService registers users and turns credentials into tokens and tokens
// back into users.
type AuthService struct {
	tx     repository.TxManager
	tokens TokenManager
}

func NewAuthService(tx repository.TxManager, tokens TokenManager) *AuthService {
	return &AuthService{tx: tx, tokens: tokens}
}

// Register creates a regular account. Admin rights are never granted here.
func (s *AuthService) Register(ctx context.Context, in entity.RegisterInput) (*AuthResult, error) {
	u, err := s.createUser(ctx, in, false)
	if err != nil {
		return nil, err
	}
	slog.Info("User registered", "user_id", u.ID)
	return s.issue(u)
}

// CreateAdmin creates an account with admin rights.
func (s *AuthService) CreateAdmin(ctx context.Context, in entity.RegisterInput) (*entity.User, error) {
	u, err := s.createUser(ctx, in, true)
	if err != nil {
		return nil, err
	}
	slog.Info("Admin created", "user_id", u.ID)
	return u, nil
}

func (s *AuthService) createUser(ctx context.Context, in entity.RegisterInput, admin bool) (*entity.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      admin,
	}

	err = s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		if _, err := uow.Users().FindByEmail(ctx, u.Email); err == nil {
			return entity.Conflict("Email already registered")
		} else if !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		return uow.Users().Create(ctx, u)
	})
	if errors.Is(err, entity.ErrConflict) {
		return nil, entity.Conflict("Email already registered")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, in entity.LoginInput) (*AuthResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var u *entity.User
	err := s.tx.View(ctx, func(uow repository.UnitOfWork) error {
		var err error
		u, err = uow.Users().FindByEmail(ctx, in.Email)
		return err
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, entity.Unauthorized("Invalid credentials")
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to a stored user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, entity.Unauthorized("Invalid or expired token")
	}

	var u *entity.User
	err = s.tx.View(ctx, func(uow repository.UnitOfWork) error {
		var err error
		u, err = uow.Users().FindByID(ctx, userID)
		return err
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.Unauthorized("User associated with token not found")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issue(u *entity.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: u}, nil
}
