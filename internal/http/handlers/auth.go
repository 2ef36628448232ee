package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type Accounts interface {
	Register(ctx context.Context, req user.NewUser) (user.User, error)
	Login(ctx context.Context, req user.AuthData) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

// IdentityWriter is the write half of the session store.
type IdentityWriter interface {
	SetIdentity(w http.ResponseWriter, identity string) error
	ClearIdentity(w http.ResponseWriter)
}

type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
	AccessTTL() time.Duration
}

type AuthHandler struct {
	accounts Accounts
	sessions IdentityWriter
	tokens   TokenIssuer
	prom     *observability.Prom
	log      *slog.Logger
}

func NewAuthHandler(accounts Accounts, sessions IdentityWriter, tokens TokenIssuer, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		prom:     prom,
		log:      log,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.NewUser

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.accounts.Register(ctx.Request.Context(), req)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "register failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.AuthData

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.accounts.Login(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, user.ErrUnauthorized) {
			h.prom.ObserveLogin("unauthorized")
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		h.prom.ObserveLogin("error")
		h.log.ErrorContext(ctx.Request.Context(), "login failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	identity, err := actorctx.EncodeIdentity(u)
	if err != nil {
		h.prom.ObserveLogin("error")
		RespondInternal(ctx, "Could not create session")
		return
	}

	if err := h.sessions.SetIdentity(ctx.Writer, identity); err != nil {
		h.prom.ObserveLogin("error")
		h.log.ErrorContext(ctx.Request.Context(), "set session cookie failed", "err", err)
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.prom.ObserveLogin("ok")
	ctx.JSON(http.StatusOK, u)
}

// Logout only tells the client to drop its cookie, so it succeeds whether
// or not a session exists.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.sessions.ClearIdentity(ctx.Writer)

	ctx.JSON(http.StatusOK, "Logged out")
}

// IssueToken exchanges a valid session for a short-lived bearer token.
func (h *AuthHandler) IssueToken(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	u, err := actorctx.DecodeIdentity(identity)
	if err != nil {
		RespondUnAuthorized(ctx, "unauthorized", "Session does not identify a user")
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"tokenType":   "Bearer",
		"expiresIn":   int(h.tokens.AccessTTL().Seconds()),
	})
}
