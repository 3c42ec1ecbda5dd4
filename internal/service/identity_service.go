package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Leganyst/slotswapper/internal/auth"
	"github.com/Leganyst/slotswapper/internal/lifecycle"
	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/repository"
)

// IdentityService регистрирует пользователей и проверяет их токены.
type IdentityService struct {
	userRepo repository.UserRepository
}

func NewIdentityService(userRepo repository.UserRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo}
}

// RegisterUser создаёт пользователя по email или возвращает существующего
// и выдаёт ему новый токен. Токен возвращается один раз.
func (s *IdentityService) RegisterUser(ctx context.Context, name, email string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", lifecycle.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email %q", lifecycle.ErrValidation, email)
	}

	u, err := s.userRepo.Upsert(ctx, name, email)
	if err != nil {
		return nil, "", fmt.Errorf("register user: %w", err)
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// IssueToken перевыпускает токен пользователя; старый перестаёт работать.
func (s *IdentityService) IssueToken(ctx context.Context, email string) (string, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.issue(ctx, u)
}

func (s *IdentityService) issue(ctx context.Context, u *model.User) (string, error) {
	token := auth.NewToken()
	if err := s.userRepo.SetTokenHash(ctx, u.ID, auth.HashToken(token)); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Authenticate реализует auth.Authenticator.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	u, err := s.userRepo.FindByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			return auth.Identity{}, auth.ErrUnauthenticated
		}
		return auth.Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	if !u.IsActive {
		return auth.Identity{}, auth.ErrUserInactive
	}
	return auth.Identity{UserID: u.ID, Name: u.Name}, nil
}
