package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCookieProvider_HeaderInRequiredOrder(t *testing.T) {
	p := NewCookieProvider(newMemCookieStore(allCookies()))
	got, err := p.Header(context.Background())
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	want := "bz_a=A; bz_r=R; pacode=P; pcid=C"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestCookieProvider_MissingCookiesIsDistinguished(t *testing.T) {
	p := NewCookieProvider(newMemCookieStore(map[string]string{"bz_a": "A", "pcid": "C", "pacode": ""}))
	got, err := p.Header(context.Background())
	if err == nil {
		t.Fatalf("expected error, got header %q", got)
	}
	if got != "" {
		t.Fatalf("no partial header expected, got %q", got)
	}
	if !IsKind(err, KindMissingCookies) {
		t.Fatalf("expected missing cookies kind, got %v", err)
	}
	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ResolveError")
	}
	if diff := cmp.Diff([]string{"bz_r", "pacode"}, re.MissingCookies); diff != "" {
		t.Fatalf("missing cookies mismatch (-want +got):\n%s", diff)
	}
}

func TestCookieProvider_Present(t *testing.T) {
	p := NewCookieProvider(newMemCookieStore(map[string]string{"bz_a": "A"}))
	names, err := p.Present(context.Background())
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if len(names) != 1 || names[0] != "bz_a" {
		t.Fatalf("unexpected names: %v", names)
	}
}
