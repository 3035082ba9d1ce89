package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

// CookieRepository stocke les cookies synchronisés par le compagnon navigateur.
type CookieRepository struct {
	db *sql.DB
}

func NewCookieRepository(db *sql.DB) *CookieRepository {
	return &CookieRepository{db: db}
}

func (r *CookieRepository) Get(ctx context.Context, domainName, name string) (ports.Cookie, error) {
	var (
		c  ports.Cookie
		at string
	)
	err := r.db.QueryRowContext(ctx, `SELECT domain, name, value, updated_at FROM cookies WHERE domain = ? AND name = ?`, domainName, name).
		Scan(&c.Domain, &c.Name, &c.Value, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Cookie{}, ports.ErrNotFound
		}
		return ports.Cookie{}, err
	}
	c.UpdatedAt, _ = time.Parse(time.RFC3339, at)
	return c, nil
}

func (r *CookieRepository) List(ctx context.Context, domainName string) ([]ports.Cookie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT domain, name, value, updated_at FROM cookies WHERE domain = ? ORDER BY name`, domainName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ports.Cookie{}
	for rows.Next() {
		var (
			c  ports.Cookie
			at string
		)
		if err := rows.Scan(&c.Domain, &c.Name, &c.Value, &at); err != nil {
			return nil, err
		}
		c.UpdatedAt, _ = time.Parse(time.RFC3339, at)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Put remplace les valeurs existantes (upsert) dans une transaction.
func (r *CookieRepository) Put(ctx context.Context, cookies []ports.Cookie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range cookies {
		if c.Domain == "" || c.Name == "" {
			return fmt.Errorf("cookie domain and name are required")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cookies(domain, name, value, updated_at)
			VALUES(?, ?, ?, ?)
			ON CONFLICT(domain, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, c.Domain, c.Name, c.Value, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CookieRepository) Delete(ctx context.Context, domainName, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cookies WHERE domain = ? AND name = ?`, domainName, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}
