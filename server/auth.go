package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"hustle-genie/utils"
	"hustle-genie/workspace"
)

const (
	ctxEmail     = "email"
	ctxWorkspace = "workspace"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens whose subject is the
// account email
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(email string) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse returns the email carried by a valid token
func (t *Tokens) Parse(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// RequireAuth resolves the bearer token to the caller's workspace
func RequireAuth(tokens *Tokens, registry *workspace.Registry, log *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorEnvelope{
				Error: APIError{Message: "missing or invalid token", Code: "unauthorized"},
			})
			return
		}
		email, err := tokens.Parse(tokenString)
		if err != nil {
			log.Debug("rejected token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorEnvelope{
				Error: APIError{Message: err.Error(), Code: "unauthorized"},
			})
			return
		}
		w, err := registry.Get(c.Request.Context(), email)
		if err != nil {
			log.Error("failed to open workspace", "email", email, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{
				Error: APIError{Message: "could not load your data", Code: "internal"},
			})
			return
		}
		c.Set(ctxEmail, email)
		c.Set(ctxWorkspace, w)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

func currentWorkspace(c *gin.Context) *workspace.Workspace {
	return c.MustGet(ctxWorkspace).(*workspace.Workspace)
}

func currentEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
