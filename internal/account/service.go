// Package account holds the registration and login rules. It knows nothing
// about HTTP or cookies; handlers turn its results into responses.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/google/uuid"
)

type Store interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) error
}

type PasswordHasher interface {
	Hash(plain []byte) (string, error)
	Verify(stored string, candidate []byte) bool
}

type Service struct {
	store  Store
	hasher PasswordHasher
	log    *slog.Logger

	// verified against when the email is unknown so both failure paths
	// cost one hash computation
	dummyHash string
}

func NewService(store Store, hasher PasswordHasher, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	dummy, err := hasher.Hash([]byte(uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Service{
		store:     store,
		hasher:    hasher,
		log:       log,
		dummyHash: dummy,
	}, nil
}

func (s *Service) Register(ctx context.Context, req user.NewUser) (user.User, error) {
	hash, err := s.hasher.Hash([]byte(req.Password))
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.store.Create(ctx, u); err != nil {
		s.log.ErrorContext(ctx, "register failed", "err", err)
		if !user.IsStorageError(err) {
			err = user.NewStorageError("users.create", err)
		}
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)

	return u, nil
}

// Login returns ErrUnauthorized for both an unknown email and a wrong
// password.
func (s *Service) Login(ctx context.Context, req user.AuthData) (user.User, error) {
	found, err := s.store.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Verify(s.dummyHash, []byte(req.Password))
			return user.User{}, user.ErrUnauthorized
		}

		s.log.ErrorContext(ctx, "login lookup failed", "err", err)
		if !user.IsStorageError(err) {
			err = user.NewStorageError("users.get_by_email", err)
		}
		return user.User{}, err
	}

	if !s.hasher.Verify(found.PasswordHash, []byte(req.Password)) {
		return user.User{}, user.ErrUnauthorized
	}

	return found, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, err
		}

		s.log.ErrorContext(ctx, "user lookup failed", "user_id", id, "err", err)
		if !user.IsStorageError(err) {
			err = user.NewStorageError("users.get_by_id", err)
		}
		return user.User{}, err
	}

	return u, nil
}
