package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), "unique_violation"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("acquire: %w", context.Canceled), "canceled"},
		{fmt.Errorf("ping: %w", &pgconn.ConnectError{Config: &pgconn.Config{}}), "connection"},
		{&pgconn.PgError{Code: "53300"}, "too_many_connections"},
		{errors.New("boom"), "unknown"},
	}

	for _, tc := range tests {
		if got := classifyDBErr(tc.err); got != tc.want {
			t.Fatalf("classifyDBErr(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserveDB_CountsErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.create", func() error { return nil })
	err := p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	if err == nil {
		t.Fatalf("expected the wrapped error to be returned")
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("expected 1 unique_violation, got %v", got)
	}
}

func TestNilPromIsSafe(t *testing.T) {
	var p *Prom
	p.ObserveLogin("ok")
	p.ObserveSession("cookie", "rejected")

	ran := false
	if err := p.ObserveDB("users.create", func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("nil Prom must still run the op")
	}
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.InfoContext(ctx, "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if line["trace_id"] != traceID.String() {
		t.Fatalf("trace_id missing: %v", line)
	}
	if line["span_id"] != spanID.String() {
		t.Fatalf("span_id missing: %v", line)
	}
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written outside dev: %s", buf.String())
	}

	newLogger(&buf, "dev").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("debug line missing in dev")
	}
}

func TestLogger_AddsActingUser(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithUserID(context.Background(), "u-42")
	log.InfoContext(ctx, "fetched")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if line["user_id"] != "u-42" {
		t.Fatalf("user_id missing: %v", line)
	}
	if line["env"] != "prod" {
		t.Fatalf("env missing: %v", line)
	}
}

func TestLogger_ExplicitUserIDWins(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithUserID(context.Background(), "from-ctx")
	log.InfoContext(ctx, "http_request", "user_id", "explicit")

	if bytes.Count(buf.Bytes(), []byte(`"user_id"`)) != 1 {
		t.Fatalf("user_id written twice: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"user_id":"explicit"`)) {
		t.Fatalf("explicit user_id lost: %s", buf.String())
	}
}

func TestLogger_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.Info("login", "email", "a@example.com", "password", "hunter2", "password_hash", "$argon2id$...")

	out := buf.String()
	if bytes.Contains(buf.Bytes(), []byte("hunter2")) || bytes.Contains(buf.Bytes(), []byte("argon2id")) {
		t.Fatalf("secret leaked into log: %s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("a@example.com")) {
		t.Fatalf("non-secret attribute dropped: %s", out)
	}
}
