package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"zenfeed/internal/domain"
)

var truthyTokens = map[string]struct{}{
	"true": {},
	"1":    {},
	"yes":  {},
	"on":   {},
}

func (d *Database) GetSetting(ctx context.Context, key string, def string) (string, error) {
	var value sql.NullString

	err := d.db.QueryRowContext(ctx, "select value from settings where key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("select setting: %w", err)
	}
	if !value.Valid {
		return def, nil
	}

	return value.String, nil
}

func (d *Database) SetSetting(ctx context.Context, key string, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("setting key is empty")
	}

	query := `insert into settings (key, value)
	values (?, ?)
	on conflict (key) do update
	set value = excluded.value`

	_, err := d.db.ExecContext(ctx, query, key, value)

	return err
}

// GetBoolSetting treats true, 1, yes and on (any case) as true and every
// other stored value as false. A missing key yields def.
func (d *Database) GetBoolSetting(ctx context.Context, key string, def bool) (bool, error) {
	var value sql.NullString

	err := d.db.QueryRowContext(ctx, "select value from settings where key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("select setting: %w", err)
	}
	if !value.Valid {
		return def, nil
	}

	return ParseBool(value.String), nil
}

func (d *Database) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	rows, err := d.db.QueryContext(ctx, "select key, value from settings order by key")
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "ListSettings")

	var settings []domain.Setting
	for rows.Next() {
		var (
			s     domain.Setting
			value sql.NullString
		)
		if err = rows.Scan(&s.Key, &value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		s.Value = value.String
		settings = append(settings, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return settings, nil
}

func ParseBool(value string) bool {
	_, ok := truthyTokens[strings.ToLower(value)]

	return ok
}
