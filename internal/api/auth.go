package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront/internal/service"
)

const principalKey = "principal"

// Authenticator turns the shopper's bearer token into a service.Principal.
// With a secret the token must be a valid HMAC-signed JWT and its subject is
// the owner. Without one nothing in the token can be trusted, so the owner is
// a digest of the whole token and the upstream service stays the authority.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	a := &Authenticator{}
	if secret != "" {
		a.secret = []byte(secret)
	}
	return a
}

// Require aborts with 401 unless the request carries a usable bearer token
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if raw == "" {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		ownerID, ok := a.subject(raw)
		if !ok {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}

		c.Set(principalKey, service.Principal{Token: raw, OwnerID: ownerID})
		c.Next()
	}
}

func (a *Authenticator) subject(raw string) (string, bool) {
	if a.secret != nil {
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		}, jwt.WithLeeway(30*time.Second))
		if err != nil || !token.Valid {
			return "", false
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return "", false
		}
		return sub, true
	}

	return tokenOwner(raw), true
}

// tokenOwner keys an unverified token. A rotated token is a new owner.
func tokenOwner(raw string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(raw)).String()
}

func principal(c *gin.Context) service.Principal {
	p, _ := c.MustGet(principalKey).(service.Principal)
	return p
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}
