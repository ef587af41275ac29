package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"zenfeed/internal/domain"

	"github.com/mmcdole/gofeed"
)

// ErrEmptyFeed means the document parsed but yielded neither a title nor
// any entries.
var ErrEmptyFeed = errors.New("feed has no title and no entries")

// Source fetches and parses one remote feed. It knows nothing about storage.
type Source struct {
	client    *HTTPClient
	libParser *gofeed.Parser
	now       func() time.Time
	log       *slog.Logger
}

func NewSource(client *HTTPClient, log *slog.Logger) *Source {
	return &Source{
		client:    client,
		libParser: gofeed.NewParser(),
		now:       time.Now,
		log:       log,
	}
}

// FetchFeed downloads feedURL and normalizes it. Documents that are not
// strictly well-formed are accepted as long as a title or an entry survives.
func (s *Source) FetchFeed(ctx context.Context, feedURL string) (*domain.ParsedFeed, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, errors.New("feed URL is empty")
	}

	body, err := s.client.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed (URL = %s): %w", feedURL, err)
	}

	return s.parse(ctx, feedURL, body)
}

func (s *Source) parse(ctx context.Context, feedURL string, body []byte) (*domain.ParsedFeed, error) {
	parsed, err := s.libParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" && len(parsed.Items) == 0 {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", feedURL, ErrEmptyFeed)
	}

	if title == "" {
		s.log.WarnContext(ctx, "Empty feed title",
			"feedURL", feedURL,
			"itemCount", len(parsed.Items))
	}

	result := &domain.ParsedFeed{
		Title:   title,
		Entries: make([]domain.Entry, 0, len(parsed.Items)),
	}

	if parsed.Image != nil {
		result.IconURL = strings.TrimSpace(parsed.Image.URL)
	}

	now := s.now()
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		result.Entries = append(result.Entries, normalizeItem(item, now))
	}

	return result, nil
}

func normalizeItem(item *gofeed.Item, now time.Time) domain.Entry {
	publishedAt := now
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = domain.NoTitle
	}

	var rawContent string
	switch {
	case strings.TrimSpace(item.Content) != "":
		rawContent = item.Content
	case strings.TrimSpace(item.Description) != "":
		rawContent = item.Description
	default:
		rawContent = domain.NoContent
	}

	return domain.Entry{
		Title:       title,
		URL:         strings.TrimSpace(item.Link),
		Content:     HTMLToText(rawContent),
		PublishedAt: publishedAt,
	}
}
