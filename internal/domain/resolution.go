package domain

import (
	"math"
	"sort"
	"strconv"
)

type Resolution struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Label      string `json:"label"`
	IsVertical bool   `json:"isVertical"`
}

// Paliers 16:9 connus; une variante est rattachée à un palier si largeur et hauteur sont à ±10%.
var resolutionBuckets = []Resolution{
	{Width: 256, Height: 144, Label: "144p"},
	{Width: 640, Height: 360, Label: "360p"},
	{Width: 854, Height: 480, Label: "480p"},
	{Width: 1280, Height: 720, Label: "720p"},
	{Width: 1600, Height: 900, Label: "900p"},
	{Width: 1706, Height: 960, Label: "960p"},
	{Width: 1920, Height: 1080, Label: "1080p"},
	{Width: 3840, Height: 2160, Label: "4K"},
	{Width: 7680, Height: 4320, Label: "8K"},
}

func NormalizeResolution(width, height int) Resolution {
	w, h := width, height
	vertical := h > w
	if vertical {
		w, h = h, w
	}

	for _, b := range resolutionBuckets {
		dw := math.Abs(float64(w-b.Width)) / float64(b.Width)
		dh := math.Abs(float64(h-b.Height)) / float64(b.Height)
		if dw <= 0.1 && dh <= 0.1 {
			return Resolution{Width: b.Width, Height: b.Height, Label: b.Label, IsVertical: vertical}
		}
	}

	label := strconv.Itoa(w) + "x" + strconv.Itoa(h)
	return Resolution{Width: width, Height: height, Label: label, IsVertical: vertical}
}

// SortVariants renvoie une copie triée par hauteur décroissante (meilleure qualité d'abord).
// Le cache garde l'ordre brut de l'API.
func SortVariants(variants []HLSVariant) []HLSVariant {
	out := append([]HLSVariant(nil), variants...)
	sort.SliceStable(out, func(i, j int) bool {
		ri := NormalizeResolution(out[i].Width, out[i].Height)
		rj := NormalizeResolution(out[j].Width, out[j].Height)
		return ri.Height*ri.Width > rj.Height*rj.Width
	})
	return out
}
