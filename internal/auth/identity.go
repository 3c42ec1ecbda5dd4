package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Ошибки аутентификации вызывающего.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUserInactive    = errors.New("user is inactive")
)

// Identity — аутентифицированный вызывающий, передаётся через context.
type Identity struct {
	UserID uuid.UUID
	Name   string
}

// Authenticator проверяет токен и возвращает личность вызывающего.
// Реализация может ходить во внешний сервис аутентификации.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext достаёт личность; ok=false, если запрос не прошёл аутентификацию.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

// BearerToken вытаскивает токен из значения заголовка Authorization.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}
