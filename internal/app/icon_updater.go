package app

import (
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

// IconUpdater répercute les changements d'activation sur l'icône et efface le badge global.
// Branché en listener du SettingsService, il agit avant le retour du toggle.
type IconUpdater struct {
	logger   zerolog.Logger
	notifier ports.BadgeNotifier
}

func NewIconUpdater(logger zerolog.Logger, notifier ports.BadgeNotifier) *IconUpdater {
	return &IconUpdater{logger: logger, notifier: notifier}
}

// Sync applique l'état courant (au démarrage).
func (u *IconUpdater) Sync(active bool) {
	if u == nil || u.notifier == nil {
		return
	}
	u.notifier.SetIcon(domain.IconFor(active))
	u.notifier.SetBadge(0, domain.BadgeClear)
}

// Observe est un listener SettingsService.OnChange.
func (u *IconUpdater) Observe(old, updated domain.Settings) {
	if old.IsExtensionActive == updated.IsExtensionActive {
		return
	}
	u.logger.Debug().Bool("active", updated.IsExtensionActive).Msg("icon updated")
	u.Sync(updated.IsExtensionActive)
}
