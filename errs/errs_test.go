package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesScopeAndCause(t *testing.T) {
	err := New(
		"favorites/reconcile",
		CodeNetwork,
		WithHTTP(502),
		WithMessage("wishlist push failed"),
		WithCause(errors.New("connection refused")),
	)

	out := err.Error()
	if !strings.Contains(out, "scope=favorites/reconcile") {
		t.Fatalf("expected scope marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=network") {
		t.Fatalf("expected code in error string: %s", out)
	}
	if !strings.Contains(out, "http=502") {
		t.Fatalf("expected http status in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"connection refused\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New("cache/sqlite", CodeStorage, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to match the wrapped cause")
	}
}

func TestIsCodeWalksWrappedChain(t *testing.T) {
	inner := New("cache/kv", CodeNotFound)
	wrapped := fmt.Errorf("hydrate cart: %w", inner)
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatal("expected IsCode to find not_found through the wrap chain")
	}
	if IsCode(wrapped, CodeNetwork) {
		t.Fatal("did not expect network code")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatal("nil error must not match any code")
	}
}

func TestNilErrorString(t *testing.T) {
	var e *E
	if e.Error() != "<nil>" {
		t.Fatalf("expected <nil>, got %q", e.Error())
	}
}
