package ctxutil

import (
	"context"
	"testing"
)

func TestUserIDRoundtrip(t *testing.T) {
	t.Parallel()

	ctx := WithUserID(context.Background(), "u-1")
	id, ok := UserIDFromCtx(ctx)
	if !ok || id != "u-1" {
		t.Errorf("UserIDFromCtx = %q, %v; want %q, true", id, ok, "u-1")
	}
}

func TestUserIDMissing(t *testing.T) {
	t.Parallel()

	if _, ok := UserIDFromCtx(context.Background()); ok {
		t.Error("UserIDFromCtx on empty context should report false")
	}

	ctx := WithUserID(context.Background(), "")
	if _, ok := UserIDFromCtx(ctx); ok {
		t.Error("empty user ID should report false")
	}
}

func TestRequestIDRoundtrip(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromCtx(ctx); got != "req-1" {
		t.Errorf("RequestIDFromCtx = %q, want %q", got, "req-1")
	}
	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Errorf("RequestIDFromCtx on empty context = %q, want empty", got)
	}
}
