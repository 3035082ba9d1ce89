package ports

import "github.com/Guilhem-Bonnet/berriz-playback/internal/domain"

// BadgeNotifier est le collaborateur externe qui reflète l'état sur la barre d'outils.
// tabID 0 désigne le badge global (tous les onglets).
type BadgeNotifier interface {
	SetBadge(tabID int, state domain.BadgeState)
	SetIcon(state domain.IconState)
}
