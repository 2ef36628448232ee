package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type UsersRepo struct {
	pool    *pgxpool.Pool
	prom    *observability.Prom
	timeout time.Duration
}

// NewUsersRepo bounds every call by timeout, which also covers waiting for
// a free connection when the pool is exhausted.
func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom, timeout time.Duration) *UsersRepo {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &UsersRepo{
		pool:    pool,
		prom:    prom,
		timeout: timeout,
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash)
			VALUES ($1, $2, $3, $4)`,
			u.ID, u.Name, u.Email, u.PasswordHash,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.NewStorageError("users.create", user.ErrEmailTaken)
		}
		return user.NewStorageError("users.create", err)
	}

	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT id, name, email, password_hash
		FROM users
		WHERE id = $1`,
		id,
	)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email",
		`SELECT id, name, email, password_hash
		FROM users
		WHERE email = $1`,
		email,
	)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg string) (user.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var u user.User
	found := false

	err := r.prom.ObserveDB(op, func() error {
		err := r.pool.QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			// a miss is an answer, not a failed query
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return user.User{}, user.NewStorageError(op, err)
	}

	if !found {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
