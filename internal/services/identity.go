package services

import (
	"context"
	"errors"
	"net/http"

	"sensasi-chat/config"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the authenticated principal handed to the service layer. It
// is carried as an explicit context value so tests can inject a fake
// without any token machinery.
type Identity struct {
	UserID uuid.UUID
}

type AccessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenVerifier validates bearer tokens issued by the external identity
// provider. Token issuance is not this service's concern.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(cfg *config.Config) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.JWTSecret)}
}

func (v *TokenVerifier) ParseAccessToken(token string) (AccessClaims, error) {
	if token == "" {
		return AccessClaims{}, sensasi_errors.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(token, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, sensasi_errors.ErrUnauthorized
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, sensasi_errors.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || claims.UserID == "" {
		return AccessClaims{}, sensasi_errors.ErrUnauthorized
	}
	return *claims, nil
}

type ctxKey string

var identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	value := ctx.Value(identityKey)
	if value == nil {
		return Identity{}, false
	}
	id, ok := value.(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return id.UserID, true
}

// HTTPStatus maps the error taxonomy onto response codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, sensasi_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, sensasi_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, sensasi_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, sensasi_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sensasi_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, sensasi_errors.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code used in response envelopes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, sensasi_errors.ErrInvalidInput):
		return "INVALID_REQUEST"
	case errors.Is(err, sensasi_errors.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, sensasi_errors.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, sensasi_errors.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, sensasi_errors.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, sensasi_errors.ErrTransient):
		return "TRANSIENT"
	default:
		return "INTERNAL_ERROR"
	}
}
