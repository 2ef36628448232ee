package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// BearerAuth verifies "Authorization: Bearer <jwt>" signature, expiry and
// token type; a header that is merely present is not enough.
type BearerAuth struct {
	jwt  TokenVerifier
	prom *observability.Prom
}

func NewBearerAuth(jwt TokenVerifier, prom *observability.Prom) *BearerAuth {
	return &BearerAuth{jwt: jwt, prom: prom}
}

func (m *BearerAuth) RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, raw, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			m.prom.ObserveSession(AuthTypeBearer, "rejected")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			m.prom.ObserveSession(AuthTypeBearer, "rejected")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			m.prom.ObserveSession(AuthTypeBearer, "rejected")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxAuthType, AuthTypeBearer)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), claims.UserID))

		m.prom.ObserveSession(AuthTypeBearer, "forwarded")
		c.Next()
	}
}
