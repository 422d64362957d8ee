package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"infocollect/internal/model"
)

// SettingsRepository defines the interface for key-value settings storage.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	Set(ctx context.Context, key, value string) error
	GetByPrefix(ctx context.Context, prefix string) ([]model.Setting, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

type settingsRepository struct {
	db dbtx
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db dbtx) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves a setting by key. Returns (nil, nil) when the key is absent.
func (r *settingsRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT key, value, updated_at FROM settings WHERE key = ?
	`, key)

	s, err := scanSetting(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Set creates or updates a setting.
func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, formatTime(time.Now()))
	return err
}

// GetByPrefix retrieves all settings with keys starting with the given prefix.
func (r *settingsRepository) GetByPrefix(ctx context.Context, prefix string) ([]model.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, value, updated_at FROM settings WHERE key LIKE ? ESCAPE '\'
	`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []model.Setting
	for rows.Next() {
		s, err := scanSetting(rows.Scan)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Delete removes a setting by key.
func (r *settingsRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return err
}

// DeleteByPrefix removes all settings with keys starting with the given
// prefix and reports how many rows were removed.
func (r *settingsRepository) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSetting(scan func(dest ...any) error) (model.Setting, error) {
	var s model.Setting
	var updatedAt string
	if err := scan(&s.Key, &s.Value, &updatedAt); err != nil {
		return model.Setting{}, err
	}
	s.UpdatedAt, _ = parseTime(updatedAt)
	return s, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
