// Package actorctx carries the authenticated caller on a context.Context so
// code below the HTTP layer can see who is acting without a gin dependency.
package actorctx

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/geocoder89/userhub/internal/domain/user"
)

type ctxKey string

const (
	keyIdentity ctxKey = "identity"
	keyUserID   ctxKey = "user_id"
)

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, keyIdentity, identity)
}

func IdentityFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyIdentity).(string)

	return v, ok && v != ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}

// EncodeIdentity is the claim written at login: the user record as JSON,
// without the password hash.
func EncodeIdentity(u user.User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeIdentity(identity string) (user.User, error) {
	var u user.User
	if err := json.Unmarshal([]byte(identity), &u); err != nil {
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, errors.New("identity has no user id")
	}
	return u, nil
}
