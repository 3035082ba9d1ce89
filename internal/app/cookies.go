package app

import (
	"context"
	"errors"
	"strings"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

const CookieDomain = "berriz.in"

// RequiredCookies est ordonné: l'en-tête Cookie respecte cet ordre.
var RequiredCookies = []string{"bz_a", "bz_r", "pacode", "pcid"}

type CookieProvider struct {
	store  ports.CookieStore
	domain string
	names  []string
}

func NewCookieProvider(store ports.CookieStore) *CookieProvider {
	return &CookieProvider{store: store, domain: CookieDomain, names: RequiredCookies}
}

// Header construit "name=value; ..." ou échoue avec KindMissingCookies.
// La vérification des absents précède toute construction: jamais d'en-tête partiel.
func (p *CookieProvider) Header(ctx context.Context) (string, error) {
	values := make([]string, 0, len(p.names))
	var missing []string
	for _, name := range p.names {
		c, err := p.store.Get(ctx, p.domain, name)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				missing = append(missing, name)
				continue
			}
			return "", err
		}
		if c.Value == "" {
			missing = append(missing, name)
			continue
		}
		values = append(values, name+"="+c.Value)
	}
	if len(missing) > 0 {
		return "", errMissingCookies(missing)
	}
	return strings.Join(values, "; "), nil
}

// Present liste les noms de cookies connus pour le domaine (diagnostic au démarrage).
func (p *CookieProvider) Present(ctx context.Context) ([]string, error) {
	cookies, err := p.store.List(ctx, p.domain)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names, nil
}
