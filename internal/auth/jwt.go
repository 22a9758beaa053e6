package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cafeassist/internal/assistant"
	"cafeassist/internal/config"
	"cafeassist/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

var (
	ErrNoSecret     = errors.New("jwt secret not configured")
	ErrInvalidToken = errors.New("invalid token")
)

const actorKey = "cafeassist.actor"

// Claims carries the account a token was issued for
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	jwt.StandardClaims
}

// UserLookup resolves a token subject to a stored account
type UserLookup interface {
	ByID(ctx context.Context, id uint) (*models.User, error)
}

// Manager issues and verifies HMAC-signed tokens
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	users  UserLookup
}

// NewManager creates a manager from the auth config. users may be nil, in
// which case token claims are trusted without a lookup.
func NewManager(cfg config.AuthConfig, users UserLookup) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		users:  users,
	}
}

// Issue signs a token for user
func (m *Manager) Issue(user *models.User) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			Issuer:    m.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies a token and returns its claims
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	return claims, nil
}

// Resolve turns a token into the actor for a turn. An empty token is an
// anonymous actor, not an error.
func (m *Manager) Resolve(ctx context.Context, tokenString string) (assistant.Actor, error) {
	if tokenString == "" {
		return assistant.Actor{}, nil
	}
	claims, err := m.Parse(tokenString)
	if err != nil {
		return assistant.Actor{}, err
	}

	actor := assistant.Actor{
		Authenticated: true,
		UserID:        claims.UserID,
		Username:      claims.Username,
		Email:         claims.Email,
	}
	if m.users == nil {
		return actor, nil
	}
	user, err := m.users.ByID(ctx, claims.UserID)
	if err != nil {
		return assistant.Actor{}, fmt.Errorf("%w: unknown user %d", ErrInvalidToken, claims.UserID)
	}
	actor.Username = user.Username
	actor.Email = user.Email
	actor.FullName = user.FullName
	return actor, nil
}

// Middleware attaches the request's actor to the context. Requests without an
// Authorization header continue anonymously; a malformed or invalid token is
// rejected.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(actorKey, assistant.Actor{})
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format, use 'Bearer <token>'"})
			c.Abort()
			return
		}

		actor, err := m.Resolve(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor the middleware attached, or an anonymous actor
func ActorFrom(c *gin.Context) assistant.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(assistant.Actor); ok {
			return actor
		}
	}
	return assistant.Actor{}
}
