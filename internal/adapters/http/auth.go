package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// DevUserID is the caller identity when no JWT secret is configured.
const DevUserID = "anonymous"

const (
	localsUserID    = "user_id"
	localsAnonymize = "anonymize"
)

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Secret string
	Issuer string
}

// Claims are the token claims the API reads.
type Claims struct {
	// Anonymize overrides the server privacy default for this caller.
	Anonymize *bool `json:"anonymize,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies HS256 bearer tokens and stores the caller in Locals.
// WebSocket clients may pass the token as the access_token query parameter.
func AuthMiddleware(cfg AuthConfig) fiber.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(c *fiber.Ctx) error {
		if cfg.Secret == "" {
			c.Locals(localsUserID, DevUserID)
			return c.Next()
		}

		raw := bearerToken(c)
		if raw == "" {
			return errUnauthorized(c, "missing bearer token")
		}

		var claims Claims
		_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return errUnauthorized(c, "token expired")
			}
			return errUnauthorized(c, "invalid token")
		}
		if claims.Subject == "" {
			return errUnauthorized(c, "token has no subject")
		}

		c.Locals(localsUserID, claims.Subject)
		if claims.Anonymize != nil {
			c.Locals(localsAnonymize, *claims.Anonymize)
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Query("access_token")
}

// UserID returns the authenticated caller.
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localsUserID).(string); ok {
		return id
	}
	return DevUserID
}

// wantsAnonymize resolves the caller's privacy mode.
func wantsAnonymize(c *fiber.Ctx, deps *Dependencies) bool {
	if v, ok := c.Locals(localsAnonymize).(bool); ok {
		return v
	}
	return deps.Anonymize
}
