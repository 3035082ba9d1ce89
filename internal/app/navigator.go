package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/metrics"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

type NavigationState string

const (
	NavIdle      NavigationState = "idle"
	NavMatched   NavigationState = "matched"
	NavCacheHit  NavigationState = "cache_hit"
	NavCacheMiss NavigationState = "cache_miss"
	NavResolved  NavigationState = "resolved"
)

type NavigationResult struct {
	State NavigationState
	// Ref n'est renseignée que si l'URL a matché.
	Ref     domain.MediaReference
	Matched bool
	// Outcome n'est renseigné qu'après une résolution effective (cache miss).
	Outcome *Outcome
}

// Navigator orchestre: gate -> matcher -> fraîcheur du cache -> résolution -> badge.
type Navigator struct {
	logger   zerolog.Logger
	gate     Gate
	matcher  URLMatcher
	cache    *PlaybackCache
	resolver *Resolver
	notifier ports.BadgeNotifier
	now      func() time.Time
}

func NewNavigator(logger zerolog.Logger, gate Gate, matcher URLMatcher, cache *PlaybackCache, resolver *Resolver, notifier ports.BadgeNotifier) *Navigator {
	return &Navigator{
		logger:   logger,
		gate:     gate,
		matcher:  matcher,
		cache:    cache,
		resolver: resolver,
		notifier: notifier,
		now:      time.Now,
	}
}

// Handle traite un événement de bout en bout, résolution comprise (synchrone).
func (n *Navigator) Handle(ctx context.Context, ev domain.NavigationEvent) NavigationResult {
	res := n.Decide(ev)
	if res.State != NavCacheMiss {
		return res
	}
	return n.Resolve(ctx, ev.TabID, res)
}

// Decide exécute la partie sans E/S réseau et indique si une résolution est nécessaire
// (State == NavCacheMiss).
func (n *Navigator) Decide(ev domain.NavigationEvent) NavigationResult {
	if n.gate != nil && !n.gate.IsActive() {
		n.setBadge(ev.TabID, domain.BadgeClear)
		metrics.ObserveNavigation(string(NavIdle))
		return NavigationResult{State: NavIdle}
	}

	ref, ok := n.matcher.Match(ev.URL)
	if !ok {
		n.setBadge(ev.TabID, domain.BadgeClear)
		metrics.ObserveNavigation(string(NavIdle))
		return NavigationResult{State: NavIdle}
	}

	n.setBadge(ev.TabID, domain.BadgeAttention)
	res := NavigationResult{State: NavMatched, Ref: ref, Matched: true}

	if cached, fresh := n.cache.Fresh(ref.ID, n.now()); fresh {
		if cached.Error != nil && cached.Error.IsMissingCookies {
			n.setBadge(ev.TabID, domain.BadgeAuthRequired)
		}
		n.logger.Debug().Str("media_id", ref.ID).Msg("fresh cache hit")
		res.State = NavResolved
		metrics.ObserveNavigation(string(NavCacheHit))
		return res
	}

	res.State = NavCacheMiss
	return res
}

// Resolve termine un NavCacheMiss: résolution puis badge d'authentification si besoin.
func (n *Navigator) Resolve(ctx context.Context, tabID int, res NavigationResult) NavigationResult {
	out := n.resolver.Resolve(ctx, res.Ref)
	if out.Kind == OutcomeFailed && out.ErrorKind == KindMissingCookies {
		n.setBadge(tabID, domain.BadgeAuthRequired)
	}
	res.Outcome = &out
	res.State = NavResolved
	metrics.ObserveNavigation(string(NavCacheMiss))
	return res
}

func (n *Navigator) setBadge(tabID int, state domain.BadgeState) {
	if n.notifier != nil {
		n.notifier.SetBadge(tabID, state)
	}
}
