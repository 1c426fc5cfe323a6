/**
 * @description
 * Authentication middleware for operator endpoints.
 * Validates Bearer JWTs either against a JWKS (ADMIN_JWKS_URL) or an HMAC secret (JOB_SYNC_SECRET).
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: JWT parsing
 * - github.com/MicahParks/keyfunc/v2: JWKS fetching and caching
 *
 * @notes
 * - With neither configured, every protected request is rejected with 503.
 * - Tokens must carry exp and a non-empty sub.
 */

package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/logger"
)

const adminSubjectKey = "admin_subject"

// AdminAuth holds the key material used to verify operator tokens.
type AdminAuth struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

// NewAdminAuth prepares token verification. A JWKS URL takes precedence over the HMAC secret.
func NewAdminAuth(cfg config.AuthConfig) (*AdminAuth, error) {
	a := &AdminAuth{}
	if cfg.JWKSURL != "" {
		// Refresh the JWKS every hour.
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				logger.Error("There was an error with the JWKS refresh: %v", err)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load admin JWKS: %w", err)
		}
		a.jwks = jwks
		logger.Info("Admin auth initialized with JWKS")
		return a, nil
	}
	if cfg.JobSecret != "" {
		a.secret = []byte(cfg.JobSecret)
		logger.Info("Admin auth initialized with shared secret")
	}
	return a, nil
}

// Close stops the JWKS background refresh.
func (a *AdminAuth) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

func (a *AdminAuth) configured() bool {
	return a != nil && (a.jwks != nil || len(a.secret) > 0)
}

func (a *AdminAuth) parse(tokenString string) (*jwt.Token, error) {
	if a.jwks != nil {
		return jwt.Parse(tokenString, a.jwks.Keyfunc, jwt.WithExpirationRequired())
	}
	return jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired())
}

// AdminOnly protects operator routes.
func (a *AdminAuth) AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.configured() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Admin auth not configured",
			})
		}

		// 1. Get Token from Header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token format"})
		}

		// 2. Parse and Validate Token
		token, err := a.parse(tokenString)
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		// 3. Extract subject
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing subject"})
		}

		c.Locals(adminSubjectKey, sub)
		return c.Next()
	}
}

// GetAdminSubject returns the authenticated operator's subject from context
func GetAdminSubject(c *fiber.Ctx) (string, error) {
	sub, ok := c.Locals(adminSubjectKey).(string)
	if !ok {
		return "", errors.New("admin subject not found in context")
	}
	return sub, nil
}
