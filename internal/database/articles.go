package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"zenfeed/internal/domain"
)

// IngestArticle inserts an article unless its URL is already stored anywhere.
// A re-seen URL never overwrites the existing row, so read/saved flags and
// extracted full text survive every re-sync.
func (d *Database) IngestArticle(
	ctx context.Context,
	feedID int64,
	title string,
	articleURL string,
	content string,
	publishedAt time.Time,
) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.NoTitle
	}

	query := `insert into articles (feed_id, title, url, content, published_at, fetched_at)
	values (?, ?, ?, ?, ?, ?)
	on conflict (url) do nothing`

	res, err := d.db.ExecContext(ctx, query,
		feedID,
		title,
		strings.TrimSpace(articleURL),
		content,
		formatTime(publishedAt),
		formatTime(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (d *Database) GetArticle(ctx context.Context, articleID int64) (*domain.Article, bool, error) {
	query := "select " + articleColumns + " from articles as a join feeds as f on a.feed_id = f.id where a.id = ?"

	a, err := scanArticle(d.db.QueryRowContext(ctx, query, articleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan row: %w", err)
	}

	return &a, true, nil
}

func (d *Database) SetRead(ctx context.Context, articleID int64, read bool) (bool, error) {
	return d.execAffected(ctx, "update articles set is_read = ? where id = ?", read, articleID)
}

func (d *Database) SetFullContent(ctx context.Context, articleID int64, text string) (bool, error) {
	return d.execAffected(ctx, "update articles set full_content = ? where id = ?", text, articleID)
}

// ToggleSaved flips is_saved in a single statement and returns the new value.
// An unknown id returns false and touches nothing.
func (d *Database) ToggleSaved(ctx context.Context, articleID int64) (bool, error) {
	query := `update articles
	set is_saved = not coalesce(is_saved, 0)
	where id = ?
	returning is_saved`

	var saved bool
	err := d.db.QueryRowContext(ctx, query, articleID).Scan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("toggle saved: %w", err)
	}

	return saved, nil
}

func (d *Database) MarkFeedRead(ctx context.Context, feedID int64) (int64, error) {
	return d.execCount(ctx, "update articles set is_read = 1 where feed_id = ? and is_read = 0", feedID)
}

func (d *Database) MarkCategoryRead(ctx context.Context, category string) (int64, error) {
	query := `update articles
	set is_read = 1
	where is_read = 0
	and feed_id in (select id from feeds where category = ?)`

	return d.execCount(ctx, query, category)
}

func (d *Database) MarkAllRead(ctx context.Context) (int64, error) {
	return d.execCount(ctx, "update articles set is_read = 1 where is_read = 0")
}

// UnreadCountsByFeed maps feed id to its unread article count. Feeds without
// unread articles are absent.
func (d *Database) UnreadCountsByFeed(ctx context.Context) (map[int64]int, error) {
	query := `select feed_id, count(*)
	from articles
	where is_read = 0
	group by feed_id`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "UnreadCountsByFeed")

	counts := make(map[int64]int)
	for rows.Next() {
		var (
			feedID sql.NullInt64
			count  int
		)
		if err = rows.Scan(&feedID, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if !feedID.Valid {
			continue
		}

		counts[feedID.Int64] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return counts, nil
}

func (d *Database) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	affected, err := d.execCount(ctx, query, args...)

	return affected > 0, err
}

func (d *Database) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get affected rows: %w", err)
	}

	return affected, nil
}
