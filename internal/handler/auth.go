package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cezarfreitas/backendbarber/internal/domain/auth"
)

const ctxBarbershopID = "barbershopID"

// TokenManager issues and validates the HS256 session tokens handed out at
// login. The barbershop id travels in the claims so handlers can enforce
// tenant boundaries without a second lookup.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager with the given signing secret and
// token lifetime.
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl}
}

// Claims are the session token claims for an authenticated owner.
type Claims struct {
	BarbershopID string `json:"barbeariaId"`
	OwnerID      string `json:"ownerId"`
	jwt.RegisteredClaims
}

// Issue signs a session token for the given owner.
func (m *TokenManager) Issue(o *auth.Owner, now time.Time) (string, error) {
	claims := Claims{
		BarbershopID: o.BarbershopID,
		OwnerID:      o.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   o.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Parse validates a session token and returns its claims.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	return &claims, nil
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"senha" binding:"required"`
}

type loginResponse struct {
	Token        string `json:"token"`
	BarbershopID string `json:"barbeariaId"`
	Name         string `json:"nome"`
}

// Login authenticates an owner by email and password and returns a session
// token scoped to the owner's barbershop.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and senha are required")
		return
	}

	owner, err := h.owners.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrOwnerNotFound) {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondDomainError(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(owner, time.Now())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		Token:        token,
		BarbershopID: owner.BarbershopID,
		Name:         owner.Name,
	})
}

// RequireOwner validates the bearer token and stores the owner's barbershop
// id in the request context for tenant checks.
func (h *Handler) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.tokens.Parse(raw)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		c.Set(ctxBarbershopID, claims.BarbershopID)
		c.Next()
	}
}

// RequireAPIKey validates the X-API-Key header against the stored HMAC
// hashes. Keys are hashed with a server-side pepper so a database leak does
// not expose usable keys.
func (h *Handler) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			respondError(c, http.StatusUnauthorized, "missing api key")
			return
		}

		hash := HashAPIKey(h.pepper, key)
		info, err := h.apikeys.FindByHash(c.Request.Context(), hash)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid api key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(info.KeyHash), []byte(hash)) != 1 {
			respondError(c, http.StatusUnauthorized, "invalid api key")
			return
		}
		if !hasScope(info.Scopes, "admin") {
			respondError(c, http.StatusForbidden, "insufficient scope")
			return
		}
		c.Next()
	}
}

// HashAPIKey computes the HMAC-SHA256 hash of an API key under the server
// pepper. Exposed for seeding tools.
func HashAPIKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// tenantID returns the barbershop id the request is authenticated for.
func tenantID(c *gin.Context) string {
	return c.GetString(ctxBarbershopID)
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func hasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
