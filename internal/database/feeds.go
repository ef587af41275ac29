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

const feedColumns = "id, url, title, category, icon_url, last_fetched, added_at"

// SubscribeFeed inserts a feed and returns its id. Subscribing to a URL that
// is already present returns the existing id and changes nothing.
func (d *Database) SubscribeFeed(
	ctx context.Context,
	feedURL string,
	feedTitle string,
	category string,
	iconURL string,
) (int64, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return 0, errors.New("feed URL is empty")
	}

	feedTitle = strings.TrimSpace(feedTitle)
	if feedTitle == "" {
		feedTitle = feedURL
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = domain.DefaultCategory
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer d.rollback(ctx, tx, "SubscribeFeed")

	query := `insert into feeds (url, title, category, icon_url)
	values (?, ?, ?, ?)
	on conflict (url) do nothing`

	if _, err = tx.ExecContext(ctx, query, feedURL, feedTitle, category, nullString(iconURL)); err != nil {
		return 0, fmt.Errorf("insert feed: %w", err)
	}

	var id int64
	if err = tx.QueryRowContext(ctx, "select id from feeds where url = ?", feedURL).Scan(&id); err != nil {
		return 0, fmt.Errorf("select feed id: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return id, nil
}

// UnsubscribeFeed deletes the feed together with all of its articles.
func (d *Database) UnsubscribeFeed(ctx context.Context, feedID int64) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer d.rollback(ctx, tx, "UnsubscribeFeed")

	if _, err = tx.ExecContext(ctx, "delete from articles where feed_id = ?", feedID); err != nil {
		return false, fmt.Errorf("delete articles: %w", err)
	}

	res, err := tx.ExecContext(ctx, "delete from feeds where id = ?", feedID)
	if err != nil {
		return false, fmt.Errorf("delete feed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get affected rows: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return affected > 0, nil
}

// ListFeeds returns every feed ordered by category, then title, using binary
// (ordinal) collation.
func (d *Database) ListFeeds(ctx context.Context) ([]domain.Feed, error) {
	query := "select " + feedColumns + " from feeds order by category, title, id"

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "ListFeeds")

	var feeds []domain.Feed
	for rows.Next() {
		f, scanErr := scanFeed(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan row: %w", scanErr)
		}

		feeds = append(feeds, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return feeds, nil
}

func (d *Database) GetFeed(ctx context.Context, feedID int64) (*domain.Feed, bool, error) {
	row := d.db.QueryRowContext(ctx, "select "+feedColumns+" from feeds where id = ?", feedID)

	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan row: %w", err)
	}

	return &f, true, nil
}

func (d *Database) ListCategories(ctx context.Context) ([]string, error) {
	query := `select distinct category
	from feeds
	where category is not null
	order by category`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "ListCategories")

	var categories []string
	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		categories = append(categories, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return categories, nil
}

// UpdateFeedMeta records a successful sync. The title is only replaced while
// the stored one is missing or still the feed URL, so user-chosen titles stay.
func (d *Database) UpdateFeedMeta(
	ctx context.Context,
	feedID int64,
	feedTitle string,
	iconURL string,
	fetchedAt time.Time,
) error {
	query := `update feeds
	set title = case
			when ? <> '' and (title is null or title = '' or title = url) then ?
			else title
		end,
		icon_url = coalesce(?, icon_url),
		last_fetched = ?
	where id = ?`

	feedTitle = strings.TrimSpace(feedTitle)

	_, err := d.db.ExecContext(ctx, query,
		feedTitle,
		feedTitle,
		nullString(iconURL),
		formatTime(fetchedAt),
		feedID,
	)

	return err
}

func (d *Database) SetFeedCategory(ctx context.Context, feedID int64, category string) (bool, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = domain.DefaultCategory
	}

	res, err := d.db.ExecContext(ctx, "update feeds set category = ? where id = ?", category, feedID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get affected rows: %w", err)
	}

	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (domain.Feed, error) {
	var (
		f           domain.Feed
		title       sql.NullString
		category    sql.NullString
		iconURL     sql.NullString
		lastFetched sql.NullTime
		addedAt     sql.NullTime
	)

	if err := row.Scan(&f.ID, &f.URL, &title, &category, &iconURL, &lastFetched, &addedAt); err != nil {
		return domain.Feed{}, err
	}

	f.URL = strings.TrimSpace(f.URL)
	f.Title = strings.TrimSpace(title.String)
	f.Category = category.String
	if !category.Valid {
		f.Category = domain.DefaultCategory
	}
	f.IconURL = iconURL.String
	f.LastFetched = nullableTime(lastFetched)
	f.AddedAt = addedAt.Time

	return f, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)

	return sql.NullString{String: s, Valid: s != ""}
}
