// Package middleware provides HTTP middleware: authentication, logging, tracing and rate limiting.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"freebies/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

var (
	errMissingHeader = errors.New("Authorization header required")
	errHeaderFormat  = errors.New("Invalid authorization header format")
	errInvalidToken  = errors.New("Invalid or expired token")
	errSubject       = errors.New("Invalid user ID in token")
)

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	userID, err := authenticate(c.Get("Authorization"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	setUser(c, userID)
	return c.Next()
}

// OptionalAuth sets userID when a valid bearer token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	if header := c.Get("Authorization"); header != "" {
		if userID, err := authenticate(header); err == nil {
			setUser(c, userID)
		}
	}
	return c.Next()
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

func authenticate(header string) (uint, error) {
	if header == "" {
		return 0, errMissingHeader
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, errHeaderFormat
	}
	return ParseToken(cfg.JWTSecret, parts[1])
}

// ParseToken validates an HS256 token and returns the user id from its "sub" claim.
func ParseToken(secret, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errInvalidToken
	}

	// "sub" is a string per RFC 7519; some issuers send it as a number.
	var userID uint64
	switch sub := claims["sub"].(type) {
	case string:
		userID, err = strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return 0, errSubject
		}
	case float64:
		if sub <= 0 || sub != float64(uint32(sub)) {
			return 0, errSubject
		}
		userID = uint64(sub)
	default:
		return 0, errSubject
	}
	if userID == 0 {
		return 0, errSubject
	}
	return uint(userID), nil
}

// GenerateToken signs an HS256 token for userID. Used by local tooling; production
// tokens come from the identity service.
func GenerateToken(secret string, userID uint, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
