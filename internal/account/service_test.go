package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = security.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, store Store) *Service {
	t.Helper()

	svc, err := NewService(store, security.NewHasher(testParams), discardLogger())
	require.NoError(t, err)
	return svc
}

type brokenStore struct {
	err error
}

func (b brokenStore) GetByID(context.Context, string) (user.User, error) {
	return user.User{}, b.err
}

func (b brokenStore) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, b.err
}

func (b brokenStore) Create(context.Context, user.User) error {
	return b.err
}

func TestRegister_HashesAndAssignsID(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newService(t, store)

	u, err := svc.Register(context.Background(), user.NewUser{Name: "Alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Alice", u.Name)
	assert.NotEqual(t, "secret", u.PasswordHash)

	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, stored)
	assert.True(t, security.NewHasher(testParams).Verify(stored.PasswordHash, []byte("secret")))
}

func TestRegister_IDsAreUnique(t *testing.T) {
	svc := newService(t, memory.NewUsersRepo())

	a, err := svc.Register(context.Background(), user.NewUser{Name: "A", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)
	b, err := svc.Register(context.Background(), user.NewUser{Name: "B", Email: "b@x.com", Password: "p"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegister_DuplicateEmailIsStorageError(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newService(t, store)

	first, err := svc.Register(context.Background(), user.NewUser{Name: "Alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), user.NewUser{Name: "Eve", Email: "a@x.com", Password: "other"})
	require.Error(t, err)
	assert.True(t, user.IsStorageError(err))
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	// the first registration is untouched
	got, err := store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
}

func TestRegister_StoreFailureIsWrapped(t *testing.T) {
	svc := newService(t, brokenStore{err: errors.New("connection refused")})

	_, err := svc.Register(context.Background(), user.NewUser{Name: "A", Email: "a@x.com", Password: "p"})
	require.Error(t, err)
	assert.True(t, user.IsStorageError(err))
}

func TestLogin(t *testing.T) {
	svc := newService(t, memory.NewUsersRepo())

	registered, err := svc.Register(context.Background(), user.NewUser{Name: "Alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     user.AuthData
		wantErr error
	}{
		{name: "valid", req: user.AuthData{Email: "a@x.com", Password: "secret"}},
		{name: "wrong password", req: user.AuthData{Email: "a@x.com", Password: "wrong"}, wantErr: user.ErrUnauthorized},
		{name: "unknown email", req: user.AuthData{Email: "nobody@x.com", Password: "secret"}, wantErr: user.ErrUnauthorized},
		{name: "empty password", req: user.AuthData{Email: "a@x.com"}, wantErr: user.ErrUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Login(context.Background(), tc.req)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, user.User{}, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, registered.ID, got.ID)
		})
	}
}

func TestLogin_StoreFailureIsNotUnauthorized(t *testing.T) {
	svc := newService(t, brokenStore{err: errors.New("pool exhausted")})

	_, err := svc.Login(context.Background(), user.AuthData{Email: "a@x.com", Password: "secret"})
	require.Error(t, err)
	assert.True(t, user.IsStorageError(err))
	assert.NotErrorIs(t, err, user.ErrUnauthorized)
}

func TestGetByID(t *testing.T) {
	svc := newService(t, memory.NewUsersRepo())

	_, err := svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)

	u, err := svc.Register(context.Background(), user.NewUser{Name: "Alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	broken := newService(t, brokenStore{err: context.DeadlineExceeded})
	_, err = broken.GetByID(context.Background(), u.ID)
	assert.True(t, user.IsStorageError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
