// Package middleware provides the reference backend's session, logging,
// tracing and rate limiting middleware.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "blog_session"

const (
	tokenIssuer   = "blog-dev-api"
	tokenAudience = "blog-client"

	localUserID     = "userID"
	localJTI        = "sessionJTI"
	localJTIExpires = "sessionExpires"
)

// Sessions issues and verifies signed session cookies. Revoked token ids
// are kept in Redis when a client is configured.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	redis  *redis.Client
}

// NewSessions returns a session manager. rdb may be nil, in which case
// logout only clears the cookie.
func NewSessions(secret string, ttl time.Duration, secure bool, rdb *redis.Client) *Sessions {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secure, redis: rdb}
}

// Issue signs a token for userID.
func (s *Sessions) Issue(userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// SetCookie writes the session cookie for token.
func (s *Sessions) SetCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

type sessionClaims struct {
	subject string
	jti     string
	expires time.Time
}

func (s *Sessions) parse(ctx context.Context, raw string) (*sessionClaims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("invalid subject claim")
	}
	out := &sessionClaims{subject: sub}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expires = exp.Time
	}
	if jti, ok := claims["jti"].(string); ok && jti != "" {
		out.jti = jti
		if s.revoked(ctx, jti) {
			return nil, errors.New("token has been revoked")
		}
	}
	return out, nil
}

func revokedKey(jti string) string { return "blacklist:" + jti }

func (s *Sessions) revoked(ctx context.Context, jti string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, revokedKey(jti)).Result()
	return err == nil && n > 0
}

// authenticate stores the caller's user id in locals when the request
// carries a valid session cookie.
func (s *Sessions) authenticate(c *fiber.Ctx) bool {
	raw := c.Cookies(SessionCookie)
	if raw == "" {
		return false
	}
	claims, err := s.parse(c.UserContext(), raw)
	if err != nil {
		return false
	}
	c.Locals(localUserID, claims.subject)
	if claims.jti != "" {
		c.Locals(localJTI, claims.jti)
		if !claims.expires.IsZero() {
			c.Locals(localJTIExpires, claims.expires)
		}
	}
	c.SetUserContext(observability.WithUserID(c.UserContext(), claims.subject))
	return true
}

// Optional authenticates the request when possible and never rejects it.
func (s *Sessions) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.authenticate(c)
		return c.Next()
	}
}

// Required rejects requests without a valid session with 401.
func (s *Sessions) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.authenticate(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authenticated"})
		}
		return c.Next()
	}
}

// Revoke blacklists the current request's token until it would have
// expired. It is a no-op without Redis or without a session.
func (s *Sessions) Revoke(c *fiber.Ctx) error {
	jti, _ := c.Locals(localJTI).(string)
	if s.redis == nil || jti == "" {
		return nil
	}
	ttl := s.ttl
	if exp, ok := c.Locals(localJTIExpires).(time.Time); ok {
		ttl = time.Until(exp)
	}
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(c.UserContext(), revokedKey(jti), 1, ttl).Err()
}

// UserID returns the authenticated caller, if any.
func UserID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(localUserID).(string)
	return id, ok && id != ""
}
