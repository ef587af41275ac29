package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"zenfeed/internal/domain"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

var articleSelectColumns = []string{
	"a.id",
	"a.feed_id",
	"f.title",
	"a.title",
	"a.url",
	"a.content",
	"a.full_content",
	"a.published_at",
	"a.is_read",
	"a.is_saved",
	"a.fetched_at",
}

var articleColumns = strings.Join(articleSelectColumns, ", ")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// QueryArticles returns articles matching every set field of filter, newest
// first (ties by id, newest first), capped at filter.Limit.
func (d *Database) QueryArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	query, args := buildArticleQuery(filter)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "QueryArticles")

	var articles []domain.Article
	for rows.Next() {
		a, scanErr := scanArticle(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan row: %w", scanErr)
		}

		articles = append(articles, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return articles, nil
}

func buildArticleQuery(filter domain.ArticleFilter) (string, []any) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(articleSelectColumns...).
		From("articles AS a").
		Join("feeds AS f", "a.feed_id = f.id")

	if filter.FeedID != 0 {
		sb.Where(sb.Equal("a.feed_id", filter.FeedID))
	}

	if filter.Category != "" {
		sb.Where(sb.Equal("f.category", filter.Category))
	}

	if filter.UnreadOnly {
		sb.Where("a.is_read = 0")
	}

	if filter.SavedOnly {
		sb.Where("a.is_saved = 1")
	}

	if filter.SearchTerm != "" {
		pattern := "%" + likeEscaper.Replace(filter.SearchTerm) + "%"
		sb.Where(sb.Or(
			fmt.Sprintf(`a.title LIKE %s ESCAPE '\'`, sb.Var(pattern)),
			fmt.Sprintf(`a.content LIKE %s ESCAPE '\'`, sb.Var(pattern)),
		))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = domain.DefaultArticleLimit
	}

	sb.OrderBy("a.published_at DESC", "a.id DESC").Limit(limit)

	return sb.Build()
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		a           domain.Article
		feedTitle   sql.NullString
		content     sql.NullString
		fullContent sql.NullString
		publishedAt sql.NullTime
		isRead      sql.NullBool
		isSaved     sql.NullBool
		fetchedAt   sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.FeedID,
		&feedTitle,
		&a.Title,
		&a.URL,
		&content,
		&fullContent,
		&publishedAt,
		&isRead,
		&isSaved,
		&fetchedAt,
	)
	if err != nil {
		return domain.Article{}, err
	}

	a.FeedTitle = strings.TrimSpace(feedTitle.String)
	a.Content = content.String
	if fullContent.Valid {
		v := fullContent.String
		a.FullContent = &v
	}
	a.PublishedAt = publishedAt.Time
	a.IsRead = isRead.Bool
	a.IsSaved = isSaved.Bool
	a.FetchedAt = fetchedAt.Time

	return a, nil
}
