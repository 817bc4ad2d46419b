package identity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"rental-service/internal/models"
)

type Claims struct {
	UserID int64 `json:"user_id,omitempty"`
	Admin  bool  `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies HS256 tokens signed with a shared secret.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

func (p *JWTProvider) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == 0 && claims.Subject != "" {
		userID, err = strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return models.Actor{}, ErrInvalidToken
		}
	}
	if userID <= 0 {
		return models.Actor{}, ErrInvalidToken
	}
	return models.Actor{UserID: userID, Admin: claims.Admin}, nil
}

// Sign issues a token for actor. Used by tooling and tests.
func (p *JWTProvider) Sign(actor models.Actor, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = strconv.FormatInt(actor.UserID, 10)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: actor.UserID, Admin: actor.Admin, RegisteredClaims: claims})
	return token.SignedString(p.secret)
}
