package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"zenfeed/internal/domain"

	"golang.org/x/sync/singleflight"
)

const defaultExtractTimeout = 30 * time.Second

var ErrNoContent = errors.New("could not extract full text")

type Client interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

type Store interface {
	SetFullContent(ctx context.Context, articleID int64, text string) (bool, error)
}

// Extractor fetches an article's source page and stores a readable rendering
// of it as the article's full content.
type Extractor struct {
	client  Client
	store   Store
	timeout time.Duration
	group   singleflight.Group
	log     *slog.Logger
}

func New(client Client, store Store, timeout time.Duration, log *slog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}

	return &Extractor{
		client:  client,
		store:   store,
		timeout: timeout,
		log:     log,
	}
}

// ExtractFullText is single-flight per article: concurrent calls for the same
// article share one fetch. On failure the stored article is left untouched.
func (e *Extractor) ExtractFullText(ctx context.Context, article domain.Article) (string, error) {
	key := strconv.FormatInt(article.ID, 10)

	text, err, shared := e.group.Do(key, func() (any, error) {
		return e.extract(ctx, article)
	})
	if shared {
		e.log.DebugContext(ctx, "Extraction is shared",
			"articleID", article.ID)
	}
	if err != nil {
		return "", err
	}

	return text.(string), nil //nolint:forcetypeassert // extract returns a string
}

func (e *Extractor) extract(ctx context.Context, article domain.Article) (string, error) {
	articleURL := strings.TrimSpace(article.URL)
	if articleURL == "" {
		return "", fmt.Errorf("article %d has no URL: %w", article.ID, ErrNoContent)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	page, err := e.client.Get(ctx, articleURL)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to fetch article page",
			"error", err,
			"articleID", article.ID,
			"articleURL", articleURL)

		return "", fmt.Errorf("fetch page: %w", err)
	}

	text, err := readable(page, articleURL)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", ErrNoContent
	}

	ok, err := e.store.SetFullContent(ctx, article.ID, text)
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to store full content",
			"error", err,
			"articleID", article.ID)

		return "", fmt.Errorf("store full content: %w", err)
	}
	if !ok {
		e.log.WarnContext(ctx, "Article is gone before full content was stored",
			"articleID", article.ID)
	}

	e.log.DebugContext(ctx, "Full text is extracted",
		"articleID", article.ID,
		"chars", len(text))

	return text, nil
}
