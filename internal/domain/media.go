package domain

type MediaKind string

const (
	MediaKindReplay MediaKind = "replay"
	MediaKindMedia  MediaKind = "media"
)

// MediaReference est construite à chaque navigation reconnue, jamais persistée.
type MediaReference struct {
	ID   string    `json:"id"`
	Kind MediaKind `json:"kind"`

	PrimaryEndpoint string `json:"primaryEndpoint"`
	// TitleEndpoint est vide pour les replays (titre déjà présent dans la réponse principale).
	TitleEndpoint string `json:"titleEndpoint,omitempty"`
}

func (r MediaReference) HasTitleEndpoint() bool {
	return r.TitleEndpoint != ""
}

// NavigationEvent est remonté par le compagnon navigateur à chaque changement d'URL d'un onglet.
type NavigationEvent struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
}
