package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/metrics"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

// UserAgent est fixe: l'API refuse les clients non navigateur.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const maxResponseBytes = 2 << 20

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type CookieHeaderProvider interface {
	Header(ctx context.Context) (string, error)
}

type Gate interface {
	IsActive() bool
}

type OutcomeKind string

const (
	// OutcomeSkipped: gate désactivé, ni réseau ni écriture.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeDiscarded: aucun objet média dans la réponse (ex: vidéo tierce intégrée).
	OutcomeDiscarded OutcomeKind = "discarded"
	OutcomeStored    OutcomeKind = "stored"
	OutcomeFailed    OutcomeKind = "failed"
)

type Outcome struct {
	Kind      OutcomeKind
	ErrorKind ErrorKind
	Evicted   string
}

type ResolverOptions struct {
	Client HTTPDoer
	Now    func() time.Time
}

// Resolver transforme une MediaReference en entrée de cache.
// Resolve ne renvoie jamais d'erreur: tout échec terminal devient un ErrorRecord.
type Resolver struct {
	logger  zerolog.Logger
	gate    Gate
	cookies CookieHeaderProvider
	cache   *PlaybackCache
	bus     ports.EventBus
	client  HTTPDoer
	now     func() time.Time
}

func NewResolver(logger zerolog.Logger, gate Gate, cookies CookieHeaderProvider, cache *PlaybackCache, bus ports.EventBus, opts ResolverOptions) *Resolver {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 20 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{
		logger:  logger,
		gate:    gate,
		cookies: cookies,
		cache:   cache,
		bus:     bus,
		client:  opts.Client,
		now:     opts.Now,
	}
}

type apiManifest struct {
	PlaybackURL   string              `json:"playbackUrl"`
	AdaptationSet []domain.HLSVariant `json:"adaptationSet"`
}

type apiPlayback struct {
	IsDRM bool         `json:"isDrm"`
	HLS   *apiManifest `json:"hls"`
	DASH  *apiManifest `json:"dash"`
}

type apiMedia struct {
	apiPlayback
	Title string `json:"title"`
	Live  *struct {
		Replay *apiPlayback `json:"replay"`
	} `json:"live"`
}

type apiData struct {
	Media *apiMedia    `json:"media"`
	VOD   *apiPlayback `json:"vod"`
}

type apiEnvelope struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Data    *apiData `json:"data"`
}

// selectPlayback applique la priorité replay > vod > media.
func (d *apiData) selectPlayback() *apiPlayback {
	if d.Media != nil && d.Media.Live != nil && d.Media.Live.Replay != nil {
		return d.Media.Live.Replay
	}
	if d.VOD != nil {
		return d.VOD
	}
	if d.Media != nil {
		return &d.Media.apiPlayback
	}
	return nil
}

func (r *Resolver) Resolve(ctx context.Context, ref domain.MediaReference) Outcome {
	logger := r.logger.With().Str("media_id", ref.ID).Str("kind", string(ref.Kind)).Logger()

	if r.gate != nil && !r.gate.IsActive() {
		logger.Debug().Msg("extension disabled, skipping resolution")
		metrics.ObserveResolution(string(OutcomeSkipped))
		return Outcome{Kind: OutcomeSkipped}
	}

	entry, err := r.fetch(ctx, logger, ref)
	if err != nil {
		re := asTerminal(err)
		evicted := r.store(ref.ID, domain.NewErrorRecord(ref.ID, toEntryError(re), r.now()))
		logger.Error().Err(re).Str("error_kind", string(re.Kind)).Msg("resolution failed")
		metrics.ObserveResolution(string(OutcomeFailed))
		return Outcome{Kind: OutcomeFailed, ErrorKind: re.Kind, Evicted: evicted}
	}
	if entry == nil {
		logger.Warn().Msg("no media object in response, discarding")
		metrics.ObserveResolution(string(OutcomeDiscarded))
		return Outcome{Kind: OutcomeDiscarded}
	}

	evicted := r.store(ref.ID, *entry)
	logger.Info().
		Bool("drm", *entry.IsDRM).
		Int("hls", len(entry.HLS)).
		Int("dash", len(entry.DASH)).
		Str("title", entry.Title).
		Msg("playback data updated")
	metrics.ObserveResolution(string(OutcomeStored))
	return Outcome{Kind: OutcomeStored, Evicted: evicted}
}

// fetch renvoie (nil, nil) quand la réponse ne contient aucun objet média.
func (r *Resolver) fetch(ctx context.Context, logger zerolog.Logger, ref domain.MediaReference) (*domain.Entry, error) {
	cookieHeader, err := r.cookies.Header(ctx)
	if err != nil {
		return nil, err
	}

	var env apiEnvelope
	if err := r.getJSON(ctx, ref.PrimaryEndpoint, cookieHeader, &env); err != nil {
		return nil, err
	}
	if env.Code == codeFanclubOnly {
		return nil, errFanclubOnly(env.Code)
	}
	if env.Code != codeSuccess || env.Data == nil {
		return nil, errInvalidResponse(env.Code, nil)
	}

	playback := env.Data.selectPlayback()
	if playback == nil {
		return nil, nil
	}

	title := ""
	if env.Data.Media != nil {
		title = env.Data.Media.Title
	}
	if ref.HasTitleEndpoint() {
		t, err := r.fetchTitle(ctx, ref.TitleEndpoint, cookieHeader)
		if err != nil {
			logger.Warn().Err(err).Str("error_kind", string(KindTitleFetchFailed)).Msg("title fetch failed")
		} else if t != "" {
			title = t
		}
	}
	if title != "" {
		decoded, err := decodeTitle(title)
		if err != nil {
			logger.Warn().Err(err).Str("error_kind", string(KindDecodeFailed)).Msg("title decode failed")
			title = ""
		} else {
			title = decoded
		}
	}
	if title == "" {
		title = ref.ID
	}

	var hls, dash []string
	var variants []domain.HLSVariant
	if playback.HLS != nil {
		variants = playback.HLS.AdaptationSet
	}
	if !playback.IsDRM {
		if playback.HLS != nil && playback.HLS.PlaybackURL != "" {
			hls = []string{playback.HLS.PlaybackURL}
		}
		if playback.DASH != nil && playback.DASH.PlaybackURL != "" {
			dash = []string{playback.DASH.PlaybackURL}
		}
	}

	entry := domain.NewPlaybackRecord(playback.IsDRM, hls, dash, variants, title, r.now())
	return &entry, nil
}

func (r *Resolver) fetchTitle(ctx context.Context, endpoint, cookieHeader string) (string, error) {
	var env apiEnvelope
	if err := r.getJSON(ctx, endpoint, cookieHeader, &env); err != nil {
		return "", &ResolveError{Kind: KindTitleFetchFailed, Message: "fetch title", Err: err}
	}
	if env.Code != codeSuccess || env.Data == nil || env.Data.Media == nil {
		return "", nil
	}
	return env.Data.Media.Title, nil
}

func (r *Resolver) getJSON(ctx context.Context, endpoint, cookieHeader string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cookie", cookieHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return &ResolveError{Kind: KindHTTPStatus, Message: "API request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errHTTPStatus(resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return errInvalidResponse("", err)
	}
	return nil
}

func (r *Resolver) store(id string, entry domain.Entry) string {
	evicted := r.cache.Put(id, entry)
	metrics.SetCacheEntries(r.cache.Len())
	if r.bus != nil {
		b, _ := json.Marshal(map[string]any{"id": id, "error": entry.IsError(), "evicted": evicted})
		r.bus.Publish(ports.TopicCacheUpdated, b)
	}
	return evicted
}
