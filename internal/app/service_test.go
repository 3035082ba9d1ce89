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

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
)

func newTestService(t *testing.T, cookies map[string]string, handler http.HandlerFunc) (*Service, *recordingNotifier, *httptest.Server) {
	t.Helper()
	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	notifier := &recordingNotifier{}
	svc := NewService(zerolog.Nop(), ServiceDeps{
		Settings: &memSettingsRepo{},
		Cookies:  newMemCookieStore(cookies),
		Bus:      memorybus.New(),
		Notifier: notifier,
	}, ServiceOptions{APIBase: api.URL, Client: api.Client()})
	return svc, notifier, api
}

func okAPI(hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/public_context") {
			_, _ = w.Write([]byte(`{"code":"0000","data":{"media":{"title":"T"}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":"0000","data":{"vod":{"isDrm":false,"hls":{"playbackUrl":"https://x/a.m3u8"}}}}`))
	}
}

func TestService_LifecycleDoesNotLeak(t *testing.T) {
	ignore := goleak.IgnoreCurrent()

	var hits atomic.Int32
	svc, notifier, api := newTestService(t, allCookies(), okAPI(&hits))
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if icon, _ := notifier.lastIcon(); icon != domain.IconActive {
		t.Fatalf("want active icon at startup, got %q", icon)
	}

	res, err := svc.Navigate(context.Background(), domain.NavigationEvent{TabID: 1, URL: "https://berriz.in/en/a/media/content/" + testID})
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.State != NavCacheMiss {
		t.Fatalf("want cache miss, got %s", res.State)
	}
	waitFor(t, func() bool {
		e, ok := svc.Cache().Get(testID)
		return ok && e.Title == "T"
	})

	res, _ = svc.Navigate(context.Background(), domain.NavigationEvent{TabID: 1, URL: "https://berriz.in/en/a/media/content/" + testID})
	if res.State != NavResolved {
		t.Fatalf("want resolved via cache, got %s", res.State)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := svc.Navigate(context.Background(), domain.NavigationEvent{}); !errors.Is(err, ErrServiceClosed) {
		t.Fatalf("want ErrServiceClosed, got %v", err)
	}

	api.Close()
	goleak.VerifyNone(t, ignore)
}

func TestService_ToggleAppliesBeforeNextNavigation(t *testing.T) {
	var hits atomic.Int32
	svc, notifier, _ := newTestService(t, allCookies(), okAPI(&hits))
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer svc.Shutdown(context.Background())

	if _, err := svc.Dispatcher().Dispatch(context.Background(), SetExtensionStatus{IsActive: false}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if icon, _ := notifier.lastIcon(); icon != domain.IconDisabled {
		t.Fatalf("want disabled icon as soon as the toggle returns, got %q", icon)
	}
	res, err := svc.Navigate(context.Background(), domain.NavigationEvent{TabID: 9, URL: "https://berriz.in/en/a/live/replay/" + testID})
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.State != NavIdle {
		t.Fatalf("want idle while disabled, got %s", res.State)
	}
	if hits.Load() != 0 {
		t.Fatalf("disabled service must not fetch")
	}
	if got := notifier.badgesFor(9); len(got) != 1 || got[0] != domain.BadgeClear {
		t.Fatalf("want one cleared badge for tab 9, got %v", got)
	}
}

func TestService_SettingsDriveFetchLimit(t *testing.T) {
	var hits atomic.Int32
	svc, _, _ := newTestService(t, allCookies(), okAPI(&hits))
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer svc.Shutdown(context.Background())

	if _, err := svc.Settings().Put(context.Background(), domain.Settings{IsExtensionActive: true, MaxConcurrentFetches: 9}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := svc.Limiter().Stats().Limit; got != 9 {
		t.Fatalf("want limit 9, got %d", got)
	}
}
