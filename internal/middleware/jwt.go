package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

const userLocalKey = "user"

// JWTConfig holds JWT middleware configuration.
type JWTConfig struct {
	Secret    string
	Issuer    string
	ExpiresIn time.Duration
}

// Claims is the JWT payload issued by the external identity provider.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTMiddleware validates a bearer token and injects a UserContext into
// the request locals.
func JWTMiddleware(cfg JWTConfig) fiber.Handler {
	return func(c fiber.Ctx) error {
		var token string

		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = strings.TrimSpace(parts[1])
			}
		}

		// EventSource cannot set headers
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			return deny(c, port.ErrUnauthorized, CodeMissingAuthorization)
		}

		claims, err := ValidateJWT(token, cfg)
		if err != nil {
			slog.Debug("token rejected", "path", c.Path(), "error", err)
			return deny(c, port.ErrUnauthorized, CodeInvalidToken)
		}

		c.Locals(userLocalKey, &domain.UserContext{
			UserID: claims.Subject,
			Email:  claims.Email,
			Name:   claims.Name,
			Role:   claims.Role,
		})

		return c.Next()
	}
}

// RequireRole rejects users whose role differs from role. It must run after
// JWTMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(c fiber.Ctx) error {
		uc := GetUserContext(c)
		if uc == nil {
			return deny(c, port.ErrUnauthorized, CodeMissingAuthorization)
		}
		if uc.Role != role {
			return deny(c, port.ErrForbidden, CodeInsufficientRole)
		}
		return c.Next()
	}
}

// Rejection codes returned by the auth middleware.
const (
	CodeMissingAuthorization = "missing_authorization"
	CodeInvalidToken         = "invalid_token"
	CodeInsufficientRole     = "insufficient_role"
)

// deny writes 403 for port.ErrForbidden and 401 for anything else.
func deny(c fiber.Ctx, err error, code string) error {
	status := fiber.StatusUnauthorized
	if errors.Is(err, port.ErrForbidden) {
		status = fiber.StatusForbidden
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
}

// GetUserContext extracts the UserContext from Fiber locals.
func GetUserContext(c fiber.Ctx) *domain.UserContext {
	u, ok := c.Locals(userLocalKey).(*domain.UserContext)
	if !ok {
		return nil
	}
	return u
}

// GenerateJWT signs an HS256 token for user. Used by the token CLI command
// and tests; production tokens come from the identity provider.
func GenerateJWT(user domain.UserContext, cfg JWTConfig) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	expires := cfg.ExpiresIn
	if expires <= 0 {
		expires = time.Hour
	}
	now := time.Now()
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expires)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// ValidateJWT parses tokenStr and checks signature, expiry and issuer.
func ValidateJWT(tokenStr string, cfg JWTConfig) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, port.ErrTokenInvalid
	}
	return &claims, nil
}
