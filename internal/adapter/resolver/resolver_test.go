package resolver

import (
	"context"
	"testing"
	"time"
)

// TestNetResolver_ResolvesLocalhost avoids any real network dependency by
// resolving "localhost", which every hosts(5) file answers locally.
func TestNetResolver_ResolvesLocalhost(t *testing.T) {
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	eps, err := r.Resolve(ctx, "localhost", "80")
	if err != nil {
		t.Fatalf("Resolve(localhost): %v", err)
	}
	if len(eps) == 0 {
		t.Fatal("expected at least one resolved endpoint for localhost")
	}
	for _, ep := range eps {
		if ep.Network != "tcp4" && ep.Network != "tcp6" {
			t.Errorf("unexpected network %q", ep.Network)
		}
	}
}

func TestNetResolver_UnresolvableHostReturnsError(t *testing.T) {
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.Resolve(ctx, "this-domain-should-not-exist.invalid", "80")
	if err == nil {
		t.Fatal("expected an error resolving a .invalid TLD host")
	}
}
