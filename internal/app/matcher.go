package app

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
)

const DefaultAPIBase = "https://svc-api.berriz.in/service/v1/medias"

type urlPattern struct {
	kind domain.MediaKind
	re   *regexp.Regexp
}

// Ordre significatif: replay avant media, le premier qui matche gagne.
var urlPatterns = []urlPattern{
	{
		kind: domain.MediaKindReplay,
		re:   regexp.MustCompile(`(?i)^https://berriz\.in/[a-z]{2}/[^/]+/live/replay/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})/?$`),
	},
	{
		kind: domain.MediaKindMedia,
		re:   regexp.MustCompile(`(?i)^https://berriz\.in/[a-z]{2}/[^/]+/media/content/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})/?$`),
	},
}

// URLMatcher classe une URL de navigation. Fonction pure, aucune E/S.
type URLMatcher struct {
	apiBase string
}

func NewURLMatcher(apiBase string) URLMatcher {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return URLMatcher{apiBase: apiBase}
}

func (m URLMatcher) Match(rawURL string) (domain.MediaReference, bool) {
	for _, p := range urlPatterns {
		sub := p.re.FindStringSubmatch(rawURL)
		if len(sub) < 2 {
			continue
		}
		id := sub[1]
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		return m.Reference(p.kind, id), true
	}
	return domain.MediaReference{}, false
}

// Reference construit les endpoints à partir de (kind, id) uniquement.
func (m URLMatcher) Reference(kind domain.MediaKind, id string) domain.MediaReference {
	ref := domain.MediaReference{ID: id, Kind: kind}
	switch kind {
	case domain.MediaKindReplay:
		ref.PrimaryEndpoint = m.apiBase + "/live/replay/" + id + "/playback_area_context"
	default:
		ref.PrimaryEndpoint = m.apiBase + "/" + id + "/playback_info"
		ref.TitleEndpoint = m.apiBase + "/" + id + "/public_context"
	}
	return ref
}
