package identity

import (
	"context"
	"errors"
	"strings"

	"rental-service/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Provider turns a bearer token into the acting user.
type Provider interface {
	Authenticate(ctx context.Context, token string) (models.Actor, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
