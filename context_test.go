package authcore

import (
	"context"
	"testing"
)

func TestClientIPFromContext(t *testing.T) {
	if got := clientIPFromContext(WithClientIP(context.Background(), "203.0.113.9")); got != "203.0.113.9" {
		t.Fatalf("ip = %q", got)
	}
	if got := clientIPFromContext(context.Background()); got != unknownClientIP {
		t.Fatalf("missing ip = %q, want %q", got, unknownClientIP)
	}
	if got := clientIPFromContext(WithClientIP(context.Background(), "")); got != unknownClientIP {
		t.Fatalf("empty ip = %q, want %q", got, unknownClientIP)
	}
}
