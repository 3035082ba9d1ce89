package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/metrics"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

var ErrServiceClosed = errors.New("service closed")

type ServiceOptions struct {
	APIBase   string
	CacheSize int
	CacheTTL  time.Duration
	// MaxFetches plafonne MaxConcurrentFetches des réglages (0: pas de plafond).
	MaxFetches int
	// QueueSize borne les navigations en attente de décision.
	QueueSize int
	Client    HTTPDoer
}

type ServiceDeps struct {
	Settings ports.SettingsRepository
	Cookies  ports.CookieStore
	Bus      ports.EventBus
	Notifier ports.BadgeNotifier
}

type navRequest struct {
	ev    domain.NavigationEvent
	reply chan NavigationResult
}

// Service assemble les composants et possède la boucle d'événements.
// Les décisions de navigation sont sérialisées sur une seule goroutine;
// les résolutions tournent à part, bornées par le FetchLimiter.
type Service struct {
	logger zerolog.Logger

	settings   *SettingsService
	gate       *ActivationGate
	cookies    *CookieProvider
	cache      *PlaybackCache
	resolver   *Resolver
	navigator  *Navigator
	dispatcher *Dispatcher
	icons      *IconUpdater
	limiter    *FetchLimiter

	navs       chan navRequest
	maxFetches int

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	loopWG  sync.WaitGroup
	fetchWG sync.WaitGroup
}

func NewService(logger zerolog.Logger, deps ServiceDeps, opts ServiceOptions) *Service {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheCapacity
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}

	s := &Service{logger: logger, navs: make(chan navRequest, opts.QueueSize), maxFetches: opts.MaxFetches}

	s.settings = NewSettingsService(deps.Settings, deps.Bus)
	s.gate = NewActivationGate(logger.With().Str("component", "activation").Logger(), s.settings)
	s.cookies = NewCookieProvider(deps.Cookies)
	s.cache = NewPlaybackCache(opts.CacheSize, opts.CacheTTL)
	s.cache.OnEvict(func(id string) {
		metrics.IncCacheEvictions()
		logger.Debug().Str("media_id", id).Msg("cache entry evicted")
	})
	s.limiter = NewFetchLimiter(s.fetchLimit(domain.DefaultSettings().MaxConcurrentFetches))
	s.resolver = NewResolver(logger.With().Str("component", "resolver").Logger(), s.gate, s.cookies, s.cache, deps.Bus, ResolverOptions{Client: opts.Client})
	s.navigator = NewNavigator(logger.With().Str("component", "navigator").Logger(), s.gate, NewURLMatcher(opts.APIBase), s.cache, s.resolver, deps.Notifier)
	s.dispatcher = NewDispatcher(logger.With().Str("component", "dispatcher").Logger(), s.cache, s.gate, deps.Bus)
	s.icons = NewIconUpdater(logger.With().Str("component", "icons").Logger(), deps.Notifier)

	s.settings.OnChange(func(old, updated domain.Settings) {
		s.limiter.SetLimit(s.fetchLimit(updated.MaxConcurrentFetches))
		metrics.SetExtensionActive(updated.IsExtensionActive)
	})
	s.settings.OnChange(s.icons.Observe)
	return s
}

func (s *Service) fetchLimit(n int) int {
	if s.maxFetches > 0 && n > s.maxFetches {
		return s.maxFetches
	}
	return n
}

func (s *Service) Settings() *SettingsService { return s.settings }
func (s *Service) Gate() *ActivationGate      { return s.gate }
func (s *Service) Cache() *PlaybackCache      { return s.cache }
func (s *Service) Dispatcher() *Dispatcher    { return s.dispatcher }
func (s *Service) Limiter() *FetchLimiter     { return s.limiter }

// Init charge l'état persistant, applique l'icône et démarre la boucle.
// Une erreur de lecture de l'état n'empêche pas le démarrage (gate actif par défaut).
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	if s.started {
		return nil
	}

	if err := s.gate.Init(ctx); err == nil {
		if st, err := s.settings.Get(ctx); err == nil {
			s.limiter.SetLimit(s.fetchLimit(st.MaxConcurrentFetches))
		}
	}
	metrics.SetExtensionActive(s.gate.IsActive())
	s.logCookieDiagnostic(ctx)
	s.icons.Sync(s.gate.IsActive())

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true

	s.loopWG.Add(1)
	go func() {
		defer s.loopWG.Done()
		s.loop(runCtx)
	}()
	s.logger.Info().Int("cache_size", s.cache.Capacity()).Dur("cache_ttl", s.cache.TTL()).Msg("service started")
	return nil
}

func (s *Service) logCookieDiagnostic(ctx context.Context) {
	present, err := s.cookies.Present(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cookie store unavailable")
		return
	}
	s.logger.Info().Str("domain", CookieDomain).Strs("cookies", present).Msg("cookies present at startup")
}

// Navigate soumet un événement à la boucle et attend la décision (sans la résolution).
func (s *Service) Navigate(ctx context.Context, ev domain.NavigationEvent) (NavigationResult, error) {
	s.mu.Lock()
	ok := s.started && !s.closed
	s.mu.Unlock()
	if !ok {
		return NavigationResult{}, ErrServiceClosed
	}

	req := navRequest{ev: ev, reply: make(chan NavigationResult, 1)}
	select {
	case s.navs <- req:
	case <-ctx.Done():
		return NavigationResult{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return NavigationResult{}, ctx.Err()
	}
}

func (s *Service) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.navs:
			s.handle(ctx, req)
		}
	}
}

func (s *Service) handle(ctx context.Context, req navRequest) {
	logger := s.logger.With().Str("nav_id", xid.New().String()).Int("tab_id", req.ev.TabID).Logger()
	res := s.navigator.Decide(req.ev)
	logger.Debug().Str("state", string(res.State)).Str("media_id", res.Ref.ID).Msg("navigation decided")
	req.reply <- res

	if res.State != NavCacheMiss {
		return
	}
	s.fetchWG.Add(1)
	go func() {
		defer s.fetchWG.Done()
		release, err := s.limiter.Acquire(ctx)
		if err != nil {
			logger.Debug().Err(err).Str("media_id", res.Ref.ID).Msg("resolution abandoned")
			return
		}
		defer release()
		final := s.navigator.Resolve(ctx, req.ev.TabID, res)
		if final.Outcome != nil {
			logger.Info().Str("media_id", res.Ref.ID).Str("outcome", string(final.Outcome.Kind)).Msg("navigation resolved")
		}
	}()
}

// Shutdown arrête la boucle, annule les résolutions en cours et attend leur fin.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	done := make(chan struct{})
	go func() {
		s.loopWG.Wait()
		s.fetchWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info().Msg("service stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
