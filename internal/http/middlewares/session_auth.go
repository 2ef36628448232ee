package middlewares

import (
	"net/http"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// IdentityReader is the read half of the session store.
type IdentityReader interface {
	GetIdentity(r *http.Request) (string, bool)
}

// SessionAuth gates routes on an authenticated identity cookie. It trusts
// the cookie's cryptographic authenticity and never consults storage.
type SessionAuth struct {
	sessions IdentityReader
	prom     *observability.Prom
}

func NewSessionAuth(sessions IdentityReader, prom *observability.Prom) *SessionAuth {
	return &SessionAuth{sessions: sessions, prom: prom}
}

func (m *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := m.sessions.GetIdentity(c.Request)
		if !ok {
			m.prom.ObserveSession(AuthTypeCookie, "rejected")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		c.Set(CtxIdentity, identity)
		c.Set(CtxAuthType, AuthTypeCookie)
		ctx := actorctx.WithIdentity(c.Request.Context(), identity)

		// the claim is the serialized user; an undecodable claim still came
		// from us, it just carries no id for logs
		if u, err := actorctx.DecodeIdentity(identity); err == nil {
			c.Set(CtxUserID, u.ID)
			c.Set(CtxEmail, u.Email)
			ctx = actorctx.WithUserID(ctx, u.ID)
		}

		c.Request = c.Request.WithContext(ctx)

		m.prom.ObserveSession(AuthTypeCookie, "forwarded")
		c.Next()
	}
}
