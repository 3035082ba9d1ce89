package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

type memCookieStore struct {
	mu    sync.Mutex
	byKey map[string]ports.Cookie
}

func newMemCookieStore(values map[string]string) *memCookieStore {
	s := &memCookieStore{byKey: map[string]ports.Cookie{}}
	for name, value := range values {
		s.byKey[CookieDomain+"|"+name] = ports.Cookie{Domain: CookieDomain, Name: name, Value: value}
	}
	return s
}

func allCookies() map[string]string {
	return map[string]string{"bz_a": "A", "bz_r": "R", "pacode": "P", "pcid": "C"}
}

func (s *memCookieStore) Get(ctx context.Context, domainName, name string) (ports.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byKey[domainName+"|"+name]
	if !ok {
		return ports.Cookie{}, ports.ErrNotFound
	}
	return c, nil
}

func (s *memCookieStore) List(ctx context.Context, domainName string) ([]ports.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ports.Cookie{}
	for _, c := range s.byKey {
		if c.Domain == domainName {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCookieStore) Put(ctx context.Context, cookies []ports.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cookies {
		s.byKey[c.Domain+"|"+c.Name] = c
	}
	return nil
}

func (s *memCookieStore) Delete(ctx context.Context, domainName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domainName + "|" + name
	if _, ok := s.byKey[key]; !ok {
		return ports.ErrNotFound
	}
	delete(s.byKey, key)
	return nil
}

type memSettingsRepo struct {
	mu  sync.Mutex
	s   domain.Settings
	set bool
}

func (r *memSettingsRepo) Get(ctx context.Context) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.set {
		return domain.DefaultSettings(), nil
	}
	return r.s, nil
}

func (r *memSettingsRepo) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = settings
	r.set = true
	return settings, nil
}

type staticGate bool

func (g staticGate) IsActive() bool { return bool(g) }

type badgeCall struct {
	TabID int
	State domain.BadgeState
}

type recordingNotifier struct {
	mu     sync.Mutex
	badges []badgeCall
	icons  []domain.IconState
}

func (n *recordingNotifier) SetBadge(tabID int, state domain.BadgeState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.badges = append(n.badges, badgeCall{TabID: tabID, State: state})
}

func (n *recordingNotifier) SetIcon(state domain.IconState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.icons = append(n.icons, state)
}

func (n *recordingNotifier) lastBadge() (badgeCall, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.badges) == 0 {
		return badgeCall{}, false
	}
	return n.badges[len(n.badges)-1], true
}

func (n *recordingNotifier) badgesFor(tabID int) []domain.BadgeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.BadgeState
	for _, b := range n.badges {
		if b.TabID == tabID {
			out = append(out, b.State)
		}
	}
	return out
}

func (n *recordingNotifier) lastIcon() (domain.IconState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.icons) == 0 {
		return "", false
	}
	return n.icons[len(n.icons)-1], true
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
