package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
)

// Clés de la table settings; une ligne par réglage.
const (
	keyExtensionActive      = "isExtensionActive"
	keyMaxConcurrentFetches = "maxConcurrentFetches"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get complète les clés absentes ou illisibles avec les valeurs par défaut.
func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	s := domain.DefaultSettings()

	var active bool
	ok, err := r.read(ctx, keyExtensionActive, &active)
	if err != nil {
		return domain.Settings{}, err
	}
	if ok {
		s.IsExtensionActive = active
	}

	var fetches int
	ok, err = r.read(ctx, keyMaxConcurrentFetches, &fetches)
	if err != nil {
		return domain.Settings{}, err
	}
	if ok && fetches > 0 {
		s.MaxConcurrentFetches = fetches
	}
	return s, nil
}

func (r *SettingsRepository) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Settings{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	if err := write(ctx, tx, keyExtensionActive, settings.IsExtensionActive, now); err != nil {
		return domain.Settings{}, err
	}
	if err := write(ctx, tx, keyMaxConcurrentFetches, settings.MaxConcurrentFetches, now); err != nil {
		return domain.Settings{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Settings{}, err
	}
	return r.Get(ctx)
}

func (r *SettingsRepository) read(ctx context.Context, key string, out any) (bool, error) {
	var b []byte
	err := r.db.QueryRowContext(ctx, `SELECT value_json FROM settings WHERE key = ?`, key).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read setting %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		// Valeur corrompue: on retombe sur le défaut.
		return false, nil
	}
	return true, nil
}

func write(ctx context.Context, tx *sql.Tx, key string, value any, at string) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO settings(key, value_json, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at
	`, key, string(b), at)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}
