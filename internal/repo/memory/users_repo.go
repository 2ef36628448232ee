package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/userhub/internal/domain/user"
)

// UsersRepo is an in-process store with the same contract as the postgres
// one, including the unique email rule. Used for local runs and tests.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User // id -> user
	byEmail map[string]string    // email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return user.NewStorageError("users.create", err)
	}

	key := u.Email

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[key]; taken {
		return user.NewStorageError("users.create", user.ErrEmailTaken)
	}

	r.items[u.ID] = u
	r.byEmail[key] = u.ID

	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, user.NewStorageError("users.get_by_id", err)
	}

	r.mu.RLock()
	u, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, user.NewStorageError("users.get_by_email", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.items[id], nil
}
