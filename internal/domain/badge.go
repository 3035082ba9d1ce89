package domain

type BadgeState string

const (
	BadgeClear        BadgeState = "clear"
	BadgeAttention    BadgeState = "attention"
	BadgeAuthRequired BadgeState = "auth_required"
)

// Text et Color reprennent le rendu historique de la barre d'outils.
func (s BadgeState) Text() string {
	switch s {
	case BadgeAttention:
		return "!"
	case BadgeAuthRequired:
		return "⚠"
	default:
		return ""
	}
}

func (s BadgeState) Color() string {
	switch s {
	case BadgeAttention:
		return "#FF5252"
	case BadgeAuthRequired:
		return "#FFA500"
	default:
		return ""
	}
}

type IconState string

const (
	IconActive   IconState = "active"
	IconDisabled IconState = "disabled"
)

func IconFor(active bool) IconState {
	if active {
		return IconActive
	}
	return IconDisabled
}
