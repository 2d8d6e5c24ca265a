package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/id"
	"github.com/xraph/cronlock/middleware"
)

func newTestRun() *cron.Run {
	return &cron.Run{
		ID:         id.NewRunID(),
		Alias:      "send-digest",
		Interval:   time.Minute,
		Timeout:    30 * time.Second,
		StartedAt:  time.Now().UTC(),
		InstanceID: id.NewInstanceID(),
	}
}

func TestChain_ExecutionOrder(t *testing.T) {
	var order []string
	wrap := func(name string) middleware.Middleware {
		return func(ctx context.Context, _ *cron.Run, next middleware.Handler) (string, error) {
			order = append(order, name+"-before")
			res, err := next(ctx)
			order = append(order, name+"-after")
			return res, err
		}
	}

	chain := middleware.Chain(wrap("mw1"), wrap("mw2"))
	res, err := chain(context.Background(), newTestRun(), func(context.Context) (string, error) {
		order = append(order, "handler")
		return "done", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "done" {
		t.Errorf("result = %q, want %q", res, "done")
	}

	expected := "mw1-before,mw2-before,handler,mw2-after,mw1-after"
	if got := strings.Join(order, ","); got != expected {
		t.Fatalf("order = %s, want %s", got, expected)
	}
}

func TestChain_Empty(t *testing.T) {
	called := false
	_, err := middleware.Chain()(context.Background(), newTestRun(), func(context.Context) (string, error) {
		called = true
		return "", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty chain")
	}
}

func TestChain_PropagatesError(t *testing.T) {
	pass := func(ctx context.Context, _ *cron.Run, next middleware.Handler) (string, error) {
		return next(ctx)
	}
	want := errors.New("handler error")

	_, err := middleware.Chain(pass)(context.Background(), newTestRun(), func(context.Context) (string, error) {
		return "", want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	m := middleware.Recover(slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := m(context.Background(), newTestRun(), func(context.Context) (string, error) {
		panic("test panic")
	})
	if err == nil {
		t.Fatal("expected error from panic recovery")
	}
	if got := err.Error(); got != "panic in job send-digest: test panic" {
		t.Errorf("unexpected error message: %q", got)
	}
	if !strings.Contains(buf.String(), "stack=") {
		t.Error("stack trace not logged")
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	m := middleware.Recover(slog.Default())
	res, err := m(context.Background(), newTestRun(), func(context.Context) (string, error) {
		return "fine", nil
	})
	if err != nil || res != "fine" {
		t.Fatalf("got (%q, %v), want (fine, nil)", res, err)
	}
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"success", nil, "cron run finished"},
		{"failure", errors.New("smtp down"), "cron run failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			m := middleware.Logging(slog.New(slog.NewTextHandler(&buf, nil)))

			_, err := m(context.Background(), newTestRun(), func(context.Context) (string, error) {
				return "", tt.err
			})
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			out := buf.String()
			if !strings.Contains(out, "cron run started") || !strings.Contains(out, tt.wantMsg) {
				t.Errorf("log output missing messages: %s", out)
			}
			if !strings.Contains(out, "alias=send-digest") {
				t.Errorf("log output missing alias: %s", out)
			}
		})
	}
}

func TestRunContext(t *testing.T) {
	run := newTestRun()
	_, err := middleware.RunContext()(context.Background(), run, func(ctx context.Context) (string, error) {
		got, ok := middleware.RunFrom(ctx)
		if !ok {
			t.Fatal("run not found in context")
		}
		if got != run {
			t.Errorf("RunFrom returned a different run")
		}
		return "", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := middleware.RunFrom(context.Background()); ok {
		t.Error("RunFrom found a run in a bare context")
	}
}
