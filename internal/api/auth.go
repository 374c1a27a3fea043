package api

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"study-planner/internal/service"
)

const contextClaimsKey = "claims"

// Claims identify the caller. Subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// GenerateToken signs claims for userID, valid for ttl.
func GenerateToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// authMiddleware requires a valid HS256 bearer token. Telegram link codes are
// signed with the same secret and are rejected here.
func authMiddleware(secret []byte) echo.MiddlewareFunc {
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return errMissingToken
			}

			claims := new(Claims)
			_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, keyFunc,
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || claims.Subject == "" {
				return errInvalidToken.WithInternal(err)
			}
			for _, aud := range claims.Audience {
				if aud == service.LinkAudience {
					return errInvalidToken
				}
			}

			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func contextClaims(ctx echo.Context) (*Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims, nil
	}
	return nil, errUnauthorized
}

// contextUserID returns the authenticated user's ID.
func contextUserID(ctx echo.Context) (string, error) {
	claims, err := contextClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
