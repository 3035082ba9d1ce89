package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

type resolverFixture struct {
	api       *httptest.Server
	matcher   URLMatcher
	cache     *PlaybackCache
	resolver  *Resolver
	hits      atomic.Int32
	gotCookie atomic.Value
	gotUA     atomic.Value
}

func newResolverFixture(t *testing.T, cookies map[string]string, gate Gate, routes map[string]string, statuses map[string]int) *resolverFixture {
	t.Helper()
	f := &resolverFixture{}
	f.api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.gotCookie.Store(r.Header.Get("Cookie"))
		f.gotUA.Store(r.Header.Get("User-Agent"))
		for suffix, status := range statuses {
			if strings.HasSuffix(r.URL.Path, suffix) {
				w.WriteHeader(status)
				return
			}
		}
		for suffix, body := range routes {
			if strings.HasSuffix(r.URL.Path, suffix) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(f.api.Close)

	f.matcher = NewURLMatcher(f.api.URL)
	f.cache = NewPlaybackCache(7, DefaultCacheTTL)
	f.resolver = NewResolver(zerolog.Nop(), gate, NewCookieProvider(newMemCookieStore(cookies)), f.cache, memorybus.New(), ResolverOptions{
		Client: f.api.Client(),
		Now:    func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	return f
}

func (f *resolverFixture) media(t *testing.T) domain.MediaReference {
	t.Helper()
	ref, ok := f.matcher.Match("https://berriz.in/en/artist/media/content/" + testID)
	if !ok {
		t.Fatalf("media url did not match")
	}
	return ref
}

func (f *resolverFixture) replay(t *testing.T) domain.MediaReference {
	t.Helper()
	ref, ok := f.matcher.Match("https://berriz.in/en/artist/live/replay/" + testID)
	if !ok {
		t.Fatalf("replay url did not match")
	}
	return ref
}

func TestResolver_VODSuccess(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info":  `{"code":"0000","data":{"vod":{"isDrm":false,"hls":{"playbackUrl":"https://x/a.m3u8"}}}}`,
		"/public_context": `{"code":"0000","data":{"media":{"title":"Hello"}}}`,
	}, nil)

	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.Kind != OutcomeStored {
		t.Fatalf("want stored, got %+v", out)
	}
	got, ok := f.cache.Get(testID)
	if !ok {
		t.Fatalf("expected cache entry")
	}
	if diff := cmp.Diff([]string{"https://x/a.m3u8"}, got.HLS); diff != "" {
		t.Fatalf("hls mismatch (-want +got):\n%s", diff)
	}
	if len(got.DASH) != 0 {
		t.Fatalf("want no dash, got %v", got.DASH)
	}
	if got.IsDRM == nil || *got.IsDRM {
		t.Fatalf("want isDrm=false, got %v", got.IsDRM)
	}
	if got.Title != "Hello" {
		t.Fatalf("want title Hello, got %q", got.Title)
	}
	if cookie, _ := f.gotCookie.Load().(string); cookie != "bz_a=A; bz_r=R; pacode=P; pcid=C" {
		t.Fatalf("unexpected cookie header %q", cookie)
	}
	if ua, _ := f.gotUA.Load().(string); ua != UserAgent {
		t.Fatalf("unexpected user agent %q", ua)
	}
}

func TestResolver_DRMSuppressesURLs(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info": `{"code":"0000","data":{"vod":{"isDrm":true,
			"hls":{"playbackUrl":"https://x/a.m3u8","adaptationSet":[{"width":1920,"height":1080,"playbackUrl":"https://x/1080.m3u8"}]},
			"dash":{"playbackUrl":"https://x/a.mpd"}}}}`,
		"/public_context": `{"code":"0000","data":{"media":{"title":"t"}}}`,
	}, nil)

	f.resolver.Resolve(context.Background(), f.media(t))
	got, _ := f.cache.Get(testID)
	if len(got.HLS) != 0 || len(got.DASH) != 0 {
		t.Fatalf("drm record must not expose urls: hls=%v dash=%v", got.HLS, got.DASH)
	}
	if got.IsDRM == nil || !*got.IsDRM {
		t.Fatalf("want isDrm=true")
	}
	want := []domain.HLSVariant{{Width: 1920, Height: 1080, PlaybackURL: "https://x/1080.m3u8"}}
	if diff := cmp.Diff(want, got.HLSVariants); diff != "" {
		t.Fatalf("variants mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_ReplayPrefersLiveReplayAndUsesInlineTitle(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_area_context": `{"code":"0000","data":{
			"vod":{"isDrm":false,"hls":{"playbackUrl":"https://x/vod.m3u8"}},
			"media":{"title":"Live \\uD83C\\uDF40 %E2%9C%A8","live":{"replay":{"isDrm":false,"hls":{"playbackUrl":"https://x/replay.m3u8"},"dash":{"playbackUrl":"https://x/replay.mpd"}}}}}}`,
	}, nil)

	out := f.resolver.Resolve(context.Background(), f.replay(t))
	if out.Kind != OutcomeStored {
		t.Fatalf("want stored, got %+v", out)
	}
	got, _ := f.cache.Get(testID)
	if diff := cmp.Diff([]string{"https://x/replay.m3u8"}, got.HLS); diff != "" {
		t.Fatalf("hls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://x/replay.mpd"}, got.DASH); diff != "" {
		t.Fatalf("dash mismatch (-want +got):\n%s", diff)
	}
	if got.Title != "Live 🍀 ✨" {
		t.Fatalf("unexpected decoded title %q", got.Title)
	}
	if f.hits.Load() != 1 {
		t.Fatalf("replay should issue a single request, got %d", f.hits.Load())
	}
}

func TestResolver_MissingMediaObjectIsDiscarded(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info": `{"code":"0000","data":{"other":{}}}`,
	}, nil)

	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.Kind != OutcomeDiscarded {
		t.Fatalf("want discarded, got %+v", out)
	}
	if f.cache.Len() != 0 {
		t.Fatalf("discard must not write the cache, len=%d", f.cache.Len())
	}
}

func TestResolver_MissingCookiesWritesErrorRecord(t *testing.T) {
	f := newResolverFixture(t, nil, staticGate(true), nil, nil)
	before := f.cache.Len()

	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.Kind != OutcomeFailed || out.ErrorKind != KindMissingCookies {
		t.Fatalf("want failed/missing_cookies, got %+v", out)
	}
	if f.cache.Len() != before+1 {
		t.Fatalf("cache should grow by one, got %d", f.cache.Len())
	}
	got, _ := f.cache.Get(testID)
	if got.Error == nil || !got.Error.IsMissingCookies {
		t.Fatalf("want isMissingCookies error, got %+v", got.Error)
	}
	if got.IsDRM != nil {
		t.Fatalf("error record must have nil isDrm")
	}
	if diff := cmp.Diff(RequiredCookies, got.Error.MissingCookies); diff != "" {
		t.Fatalf("missing cookies mismatch (-want +got):\n%s", diff)
	}
	if got.Title != testID {
		t.Fatalf("error record title should be the id, got %q", got.Title)
	}
	if f.hits.Load() != 0 {
		t.Fatalf("no request expected without cookies, got %d", f.hits.Load())
	}
}

func TestResolver_FanclubOnly(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info": `{"code":"FS_MD9010","message":"fanclub only"}`,
	}, nil)

	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.ErrorKind != KindFanclubOnly {
		t.Fatalf("want fanclub_only, got %+v", out)
	}
	got, _ := f.cache.Get(testID)
	if got.Error == nil || !got.Error.FanclubOnly {
		t.Fatalf("want fanclubOnly error, got %+v", got.Error)
	}
	if got.Error.Type != "FANCLUB_ONLY" || got.Error.Code != "FS_MD9010" {
		t.Fatalf("unexpected type/code: %+v", got.Error)
	}
	if len(got.HLS) != 0 || len(got.DASH) != 0 {
		t.Fatalf("error record must have empty urls")
	}
}

func TestResolver_UnauthorizedCarriesStatusAndMessage(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), nil, map[string]int{
		"/playback_info": http.StatusUnauthorized,
	})

	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.ErrorKind != KindUnauthorized {
		t.Fatalf("want unauthorized, got %+v", out)
	}
	got, _ := f.cache.Get(testID)
	if got.Error.Status != http.StatusUnauthorized {
		t.Fatalf("want status 401, got %d", got.Error.Status)
	}
	if !strings.Contains(strings.ToLower(got.Error.Message), "401 unauthorized") {
		t.Fatalf("message must keep the reload trigger, got %q", got.Error.Message)
	}
}

func TestResolver_HTTPErrorAndInvalidResponse(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), nil, map[string]int{
		"/playback_info": http.StatusBadGateway,
	})
	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.ErrorKind != KindHTTPStatus {
		t.Fatalf("want http_status, got %+v", out)
	}
	got, _ := f.cache.Get(testID)
	if got.Error.Status != http.StatusBadGateway {
		t.Fatalf("want status 502, got %d", got.Error.Status)
	}

	f2 := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info": `{"code":"9999"}`,
	}, nil)
	out = f2.resolver.Resolve(context.Background(), f2.media(t))
	if out.ErrorKind != KindInvalidResponse {
		t.Fatalf("want invalid_response, got %+v", out)
	}

	f3 := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info": `{"code":"0000"}`,
	}, nil)
	out = f3.resolver.Resolve(context.Background(), f3.media(t))
	if out.ErrorKind != KindInvalidResponse {
		t.Fatalf("want invalid_response for absent data, got %+v", out)
	}
}

func TestResolver_TitleFailuresFallBackToID(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info": `{"code":"0000","data":{"vod":{"isDrm":false,"hls":{"playbackUrl":"https://x/a.m3u8"}}}}`,
	}, map[string]int{
		"/public_context": http.StatusInternalServerError,
	})
	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.Kind != OutcomeStored {
		t.Fatalf("title failure must not abort resolution, got %+v", out)
	}
	got, _ := f.cache.Get(testID)
	if got.Title != testID {
		t.Fatalf("want id fallback title, got %q", got.Title)
	}

	f2 := newResolverFixture(t, allCookies(), staticGate(true), map[string]string{
		"/playback_info":  `{"code":"0000","data":{"vod":{"isDrm":false}}}`,
		"/public_context": `{"code":"0000","data":{"media":{"title":"100% broken"}}}`,
	}, nil)
	out = f2.resolver.Resolve(context.Background(), f2.media(t))
	if out.Kind != OutcomeStored {
		t.Fatalf("decode failure must not abort resolution, got %+v", out)
	}
	got, _ = f2.cache.Get(testID)
	if got.Title != testID {
		t.Fatalf("want id fallback title after decode failure, got %q", got.Title)
	}
}

func TestResolver_InactiveGateSkips(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(false), map[string]string{
		"/playback_info": `{"code":"0000","data":{"vod":{"isDrm":false}}}`,
	}, nil)
	out := f.resolver.Resolve(context.Background(), f.media(t))
	if out.Kind != OutcomeSkipped {
		t.Fatalf("want skipped, got %+v", out)
	}
	if f.hits.Load() != 0 || f.cache.Len() != 0 {
		t.Fatalf("inactive gate must not touch network or cache")
	}
}

func TestDecodeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"\\u0048\\u0069", "Hi"},
		{"\\uD83C\\uDF40 clover", "\U0001F340 clover"},
		{"%ED%95%9C%EA%B8%80", "한글"},
	}
	for _, c := range cases {
		got, err := decodeTitle(c.in)
		if err != nil {
			t.Fatalf("decodeTitle(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("decodeTitle(%q): want %q, got %q", c.in, c.want, got)
		}
	}

	for _, bad := range []string{"100%", "%zz", "%C3%28"} {
		if _, err := decodeTitle(bad); !IsKind(err, KindDecodeFailed) {
			t.Fatalf("decodeTitle(%q): expected decode_failed, got %v", bad, err)
		}
	}
}

type brokenCookieStore struct{ *memCookieStore }

func (brokenCookieStore) Get(ctx context.Context, domainName, name string) (ports.Cookie, error) {
	return ports.Cookie{}, errors.New("storage unavailable")
}

func TestResolver_UnclassifiedFailureIsStoredAsTerminal(t *testing.T) {
	f := newResolverFixture(t, allCookies(), staticGate(true), nil, nil)
	r := NewResolver(zerolog.Nop(), staticGate(true), NewCookieProvider(brokenCookieStore{newMemCookieStore(nil)}), f.cache, memorybus.New(), ResolverOptions{
		Client: f.api.Client(),
	})

	out := r.Resolve(context.Background(), f.media(t))
	if out.Kind != OutcomeFailed || out.ErrorKind != KindHTTPStatus {
		t.Fatalf("want failed/http_status, got %+v", out)
	}
	if !out.ErrorKind.Terminal() {
		t.Fatalf("stored failures must carry a terminal kind")
	}
	if f.hits.Load() != 0 {
		t.Fatalf("no request expected when cookies cannot be read")
	}
	e, ok := f.cache.Get(testID)
	if !ok || e.Error == nil || !strings.Contains(e.Error.Message, "storage unavailable") {
		t.Fatalf("want error record with cause, got %+v", e)
	}
}

func TestErrorKind_Terminal(t *testing.T) {
	for kind, want := range map[ErrorKind]bool{
		KindMissingCookies:   true,
		KindUnauthorized:     true,
		KindHTTPStatus:       true,
		KindFanclubOnly:      true,
		KindInvalidResponse:  true,
		KindTitleFetchFailed: false,
		KindDecodeFailed:     false,
		"":                   false,
	} {
		if got := kind.Terminal(); got != want {
			t.Errorf("%q.Terminal() = %v, want %v", kind, got, want)
		}
	}

	wrapped := asTerminal(&ResolveError{Kind: KindTitleFetchFailed, Message: "fetch title"})
	var inner *ResolveError
	if wrapped.Kind != KindHTTPStatus || !errors.As(wrapped.Err, &inner) || inner.Kind != KindTitleFetchFailed {
		t.Fatalf("non-terminal kind should be wrapped, got %+v", wrapped)
	}
}
