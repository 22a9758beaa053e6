package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cafeassist/internal/assistant"
	"cafeassist/internal/config"
	"cafeassist/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[uint]*models.User

func (s stubUsers) ByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func testUser() *models.User {
	u := &models.User{Username: "asha", Email: "asha@example.com", FullName: "Asha Verma"}
	u.ID = 7
	return u
}

func testManager(users UserLookup) *Manager {
	return NewManager(config.AuthConfig{
		JWTSecret: "test-secret-key-for-testing-only",
		Issuer:    "cafeassist",
		TokenTTL:  time.Hour,
	}, users)
}

func TestIssueAndParse(t *testing.T) {
	m := testManager(nil)
	token, err := m.Issue(testUser())
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "7", claims.Subject)
}

func TestParse_Rejects(t *testing.T) {
	m := testManager(nil)

	_, err := m.Parse("invalid_token_xyz")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewManager(config.AuthConfig{JWTSecret: "different", Issuer: "cafeassist", TokenTTL: time.Hour}, nil)
	token, err := other.Issue(testUser())
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewManager(config.AuthConfig{JWTSecret: "test-secret-key-for-testing-only", Issuer: "cafeassist", TokenTTL: -time.Minute}, nil)
	token, err = expired.Issue(testUser())
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewManager(config.AuthConfig{JWTSecret: "test-secret-key-for-testing-only", Issuer: "someone-else", TokenTTL: time.Hour}, nil)
	token, err = foreign.Issue(testUser())
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7, StandardClaims: jwt.StandardClaims{Issuer: "cafeassist"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoSecret(t *testing.T) {
	m := NewManager(config.AuthConfig{TokenTTL: time.Hour}, nil)
	_, err := m.Issue(testUser())
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = m.Parse("anything")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestResolve(t *testing.T) {
	m := testManager(stubUsers{7: testUser()})
	ctx := context.Background()

	actor, err := m.Resolve(ctx, "")
	require.NoError(t, err)
	assert.False(t, actor.Authenticated)

	token, err := m.Issue(testUser())
	require.NoError(t, err)
	actor, err = m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, assistant.Actor{
		Authenticated: true,
		UserID:        7,
		Username:      "asha",
		Email:         "asha@example.com",
		FullName:      "Asha Verma",
	}, actor)

	ghost := testUser()
	ghost.ID = 99
	token, err = m.Issue(ghost)
	require.NoError(t, err)
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/test", func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": actor.Authenticated, "user_id": actor.UserID})
	})
	return router
}

func TestMiddleware(t *testing.T) {
	m := testManager(stubUsers{7: testUser()})
	router := newRouter(m)
	token, err := m.Issue(testUser())
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   int
		authed bool
	}{
		{"anonymous", "", http.StatusOK, false},
		{"bad format", "InvalidFormat", http.StatusUnauthorized, false},
		{"bad token", "Bearer invalid_token_xyz", http.StatusUnauthorized, false},
		{"valid", "Bearer " + token, http.StatusOK, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			if tc.code != http.StatusOK {
				return
			}
			var body struct {
				Authenticated bool `json:"authenticated"`
				UserID        uint `json:"user_id"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.authed, body.Authenticated)
			if tc.authed {
				assert.Equal(t, uint(7), body.UserID)
			}
		})
	}
}
