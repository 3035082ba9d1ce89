package app

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
)

// ActivationGate reflète en mémoire le drapeau persistant isExtensionActive.
//
// Le miroir est mis à jour de façon synchrone par SettingsService, donc toute
// navigation traitée après le retour de SetActive voit la nouvelle valeur.
// Une résolution déjà lancée n'est pas interrompue par une désactivation.
type ActivationGate struct {
	logger   zerolog.Logger
	settings *SettingsService
	active   atomic.Bool
}

func NewActivationGate(logger zerolog.Logger, settings *SettingsService) *ActivationGate {
	g := &ActivationGate{logger: logger, settings: settings}
	g.active.Store(domain.DefaultSettings().IsExtensionActive)
	settings.OnChange(func(old, updated domain.Settings) {
		g.mirror(updated.IsExtensionActive)
	})
	return g
}

// Init charge l'état persistant. En cas d'erreur de lecture, le gate reste actif.
func (g *ActivationGate) Init(ctx context.Context) error {
	s, err := g.settings.Get(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("load activation state failed, defaulting to active")
		g.active.Store(true)
		return err
	}
	g.active.Store(s.IsExtensionActive)
	g.logger.Info().Bool("active", s.IsExtensionActive).Msg("activation state loaded")
	return nil
}

func (g *ActivationGate) IsActive() bool {
	return g.active.Load()
}

func (g *ActivationGate) SetActive(ctx context.Context, active bool) (bool, error) {
	s, err := g.settings.Get(ctx)
	if err != nil {
		return g.IsActive(), err
	}
	s.IsExtensionActive = active
	updated, err := g.settings.Put(ctx, s)
	if err != nil {
		return g.IsActive(), err
	}
	return updated.IsExtensionActive, nil
}

func (g *ActivationGate) mirror(active bool) {
	if g.active.Swap(active) != active {
		g.logger.Info().Bool("active", active).Msg("activation state changed")
	}
}
