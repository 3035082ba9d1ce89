package domain

// Settings regroupe l'état persistant piloté par l'utilisateur.
type Settings struct {
	// IsExtensionActive coupe toute activité réseau quand false.
	IsExtensionActive bool `json:"isExtensionActive"`

	// Plafond de résolutions simultanées (appliqué à chaud).
	MaxConcurrentFetches int `json:"maxConcurrentFetches"`
}

func DefaultSettings() Settings {
	return Settings{
		IsExtensionActive:    true,
		MaxConcurrentFetches: 4,
	}
}
