package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"zenfeed/internal/domain"

	"mvdan.cc/xurls/v2"
)

// FindValidFeeds extracts every http(s) URL from text and keeps the ones
// that parse as feeds. Title and icon come from the feed document; the title
// falls back to the URL. Rejected URLs are reported in the joined error.
func (s *Source) FindValidFeeds(ctx context.Context, text string) ([]domain.Feed, error) {
	urlRe, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return nil, fmt.Errorf("create regexp: %w", err)
	}

	urls := urlRe.FindAllString(strings.TrimSpace(text), -1)
	if len(urls) == 0 {
		return nil, errors.New("no feed URL found")
	}

	feeds := make([]domain.Feed, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))

	var errs []error

	for _, u := range urls {
		feedURL := strings.TrimSpace(u)
		if _, ok := seen[feedURL]; ok {
			continue
		}
		seen[feedURL] = struct{}{}

		parsed, fetchErr := s.FetchFeed(ctx, feedURL)
		if fetchErr != nil {
			errs = append(errs, fmt.Errorf("validate feed %s: %w", feedURL, fetchErr))

			continue
		}

		title := strings.TrimSpace(parsed.Title)
		if title == "" {
			title = feedURL
		}

		feeds = append(feeds, domain.Feed{
			URL:     feedURL,
			Title:   title,
			IconURL: parsed.IconURL,
		})
	}

	return feeds, errors.Join(errs...)
}
