package database

import (
	"context"
	"database/sql"
	"fmt"
)

// additiveColumns lists columns introduced after the first released schema.
// Older database files get them added in place. SQLite refuses
// non-constant defaults on ALTER TABLE, so timestamps are added without one.
var additiveColumns = []struct {
	table      string
	column     string
	definition string
}{
	{"feeds", "category", "TEXT DEFAULT 'Uncategorized'"},
	{"feeds", "icon_url", "TEXT"},
	{"feeds", "last_fetched", "TIMESTAMP"},
	{"feeds", "added_at", "TIMESTAMP"},
	{"articles", "full_content", "TEXT"},
	{"articles", "is_saved", "BOOLEAN DEFAULT 0"},
	{"articles", "fetched_at", "TIMESTAMP"},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id)",
	"CREATE INDEX IF NOT EXISTS idx_articles_is_read ON articles(is_read)",
	"CREATE INDEX IF NOT EXISTS idx_articles_is_saved ON articles(is_saved)",
}

func (d *Database) addMissingColumns(ctx context.Context) ([]string, error) {
	var added []string

	for _, c := range additiveColumns {
		exists, err := d.columnExists(ctx, c.table, c.column)
		if err != nil {
			return added, fmt.Errorf("check column %s.%s: %w", c.table, c.column, err)
		}
		if exists {
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.definition)
		if _, err = d.db.ExecContext(ctx, query); err != nil {
			return added, fmt.Errorf("add column %s.%s: %w", c.table, c.column, err)
		}

		added = append(added, c.table+"."+c.column)
	}

	return added, nil
}

func (d *Database) createIndexes(ctx context.Context) error {
	for _, query := range indexes {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

func (d *Database) columnExists(ctx context.Context, table string, column string) (bool, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer d.closeRows(ctx, rows, "columnExists")

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err = rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}

	return false, rows.Err()
}
