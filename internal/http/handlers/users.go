package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UsersHandler struct {
	users UserReader
	log   *slog.Logger
}

func NewUsersHandler(users UserReader, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{users: users, log: log}
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("user_id")

	// ids are UUIDs, anything else cannot name a user
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, notFoundMessage(id))
		return
	}

	u, err := h.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, notFoundMessage(id))
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "get user failed", "user_id", id, "err", err)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	RespondJSONWithETag(ctx, 200, u)
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("No user found with uid: %s", id)
}
