package ports

import (
	"context"
	"time"
)

type Cookie struct {
	Domain    string
	Name      string
	Value     string
	UpdatedAt time.Time
}

// CookieStore expose les cookies de session synchronisés par le compagnon navigateur.
type CookieStore interface {
	// Get renvoie ErrNotFound si le cookie est absent.
	Get(ctx context.Context, domain, name string) (Cookie, error)
	List(ctx context.Context, domain string) ([]Cookie, error)
	Put(ctx context.Context, cookies []Cookie) error
	Delete(ctx context.Context, domain, name string) error
}
