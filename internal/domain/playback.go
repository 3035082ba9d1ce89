package domain

import "time"

type HLSVariant struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	PlaybackURL string `json:"playbackUrl"`
}

// EntryError décrit un échec de résolution mis en cache à la place d'un PlaybackRecord.
type EntryError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Type    string `json:"type,omitempty"`
	// Status porte le code HTTP quand l'échec vient du transport (401 compris).
	Status           int      `json:"status,omitempty"`
	IsMissingCookies bool     `json:"isMissingCookies"`
	FanclubOnly      bool     `json:"fanclubOnly"`
	MissingCookies   []string `json:"missingCookies,omitempty"`
}

// Entry est la valeur du cache: un PlaybackRecord si Error est nil, sinon un ErrorRecord.
type Entry struct {
	// IsDRM est nil pour un ErrorRecord.
	IsDRM       *bool
	HLS         []string
	DASH        []string
	HLSVariants []HLSVariant
	Title       string
	Timestamp   time.Time
	Error       *EntryError
}

func (e Entry) IsError() bool {
	return e.Error != nil
}

func NewPlaybackRecord(isDRM bool, hls, dash []string, variants []HLSVariant, title string, at time.Time) Entry {
	if hls == nil {
		hls = []string{}
	}
	if dash == nil {
		dash = []string{}
	}
	if variants == nil {
		variants = []HLSVariant{}
	}
	return Entry{
		IsDRM:       &isDRM,
		HLS:         hls,
		DASH:        dash,
		HLSVariants: variants,
		Title:       title,
		Timestamp:   at,
	}
}

func NewErrorRecord(id string, e EntryError, at time.Time) Entry {
	return Entry{
		HLS:         []string{},
		DASH:        []string{},
		HLSVariants: []HLSVariant{},
		Title:       id,
		Timestamp:   at,
		Error:       &e,
	}
}
