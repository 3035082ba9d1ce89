package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
	bus  ports.EventBus

	mu        sync.Mutex
	listeners []func(old, updated domain.Settings)
}

func NewSettingsService(repo ports.SettingsRepository, bus ports.EventBus) *SettingsService {
	return &SettingsService{repo: repo, bus: bus}
}

// OnChange enregistre un listener appelé de façon synchrone après chaque Put réussi.
func (s *SettingsService) OnChange(fn func(old, updated domain.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	return s.repo.Get(ctx)
}

func (s *SettingsService) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if settings.MaxConcurrentFetches <= 0 {
		settings.MaxConcurrentFetches = domain.DefaultSettings().MaxConcurrentFetches
	}

	// Sérialise lecture/écriture pour que les listeners voient des transitions cohérentes.
	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.repo.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	updated, err := s.repo.Put(ctx, settings)
	if err != nil {
		return domain.Settings{}, err
	}
	for _, fn := range s.listeners {
		fn(old, updated)
	}
	if old.IsExtensionActive != updated.IsExtensionActive && s.bus != nil {
		b, _ := json.Marshal(map[string]bool{"isActive": updated.IsExtensionActive})
		s.bus.Publish(ports.TopicActivationChanged, b)
	}
	return updated, nil
}
