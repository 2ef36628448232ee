package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// postgres SQLSTATEs worth their own error class; the rest are reported as
// pg_<code>
var pgErrorClasses = map[string]string{
	"23505": "unique_violation",
	"23502": "not_null_violation",
	"22P02": "invalid_text_representation",
	"57014": "query_canceled",
	"53300": "too_many_connections",
	"08006": "connection_failure",
}

// ObserveDB times fn under a logical op name such as "users.get_by_email".
// A nil Prom just runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if class, ok := pgErrorClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code
	}

	switch {
	// waiting on an exhausted pool ends with the caller's deadline
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return "connection"
	}

	return "unknown"
}
