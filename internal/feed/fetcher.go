package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"zenfeed/internal/domain"
)

const (
	defaultSyncConcurrency = 8
	defaultFeedTimeout     = 2 * time.Minute
)

type Store interface {
	ListFeeds(ctx context.Context) ([]domain.Feed, error)
	IngestArticle(
		ctx context.Context,
		feedID int64,
		title string,
		articleURL string,
		content string,
		publishedAt time.Time,
	) (bool, error)
	UpdateFeedMeta(
		ctx context.Context,
		feedID int64,
		feedTitle string,
		iconURL string,
		fetchedAt time.Time,
	) error
}

type FeedSource interface {
	FetchFeed(ctx context.Context, feedURL string) (*domain.ParsedFeed, error)
}

type FeedFailure struct {
	FeedID int64
	URL    string
	Err    error
}

// Report is the aggregate outcome of one sync cycle.
type Report struct {
	Feeds       int
	Succeeded   int
	NewArticles int
	Failures    []FeedFailure
	Cancelled   bool
}

type feedResult struct {
	feed        domain.Feed
	newArticles int
	fetchErr    error
	storeErr    error
}

// Fetcher is the sync engine: it pulls every subscribed feed through a
// FeedSource and reconciles the entries into the Store.
type Fetcher struct {
	store       Store
	source      FeedSource
	concurrency int
	feedTimeout time.Duration
	log         *slog.Logger
}

func NewFetcher(store Store, source FeedSource, concurrency int, log *slog.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = defaultSyncConcurrency
	}

	return &Fetcher{
		store:       store,
		source:      source,
		concurrency: concurrency,
		feedTimeout: defaultFeedTimeout,
		log:         log,
	}
}

// SyncAll fetches every feed concurrently and ingests new entries. A failing
// feed never affects the others. Once ctx is done no further feeds are
// started; feeds already started run to completion. The returned error only
// carries storage failures; fetch failures are listed in the report.
func (f *Fetcher) SyncAll(ctx context.Context) (Report, error) {
	feeds, err := f.store.ListFeeds(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list feeds: %w", err)
	}

	report := Report{Feeds: len(feeds)}
	if len(feeds) == 0 {
		return report, nil
	}

	// Started feeds must not be interrupted by cancellation of the cycle.
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup

	semCh := make(chan struct{}, min(f.concurrency, len(feeds)))
	resultCh := make(chan feedResult, len(feeds))

	for _, feed := range feeds {
		if !f.acquire(ctx, semCh) {
			report.Cancelled = true

			break
		}

		wg.Go(func() {
			defer func() { <-semCh }()

			resultCh <- f.syncFeed(workCtx, feed)
		})
	}

	wg.Wait()
	close(resultCh)

	var storeErrs []error
	for result := range resultCh {
		switch {
		case result.storeErr != nil:
			storeErrs = append(storeErrs, fmt.Errorf("sync feed %d: %w", result.feed.ID, result.storeErr))
			report.Failures = append(report.Failures, FeedFailure{
				FeedID: result.feed.ID,
				URL:    result.feed.URL,
				Err:    result.storeErr,
			})
		case result.fetchErr != nil:
			report.Failures = append(report.Failures, FeedFailure{
				FeedID: result.feed.ID,
				URL:    result.feed.URL,
				Err:    result.fetchErr,
			})
		default:
			report.Succeeded++
		}

		report.NewArticles += result.newArticles
	}

	f.log.InfoContext(ctx, "Sync cycle is finished",
		"feeds", report.Feeds,
		"succeeded", report.Succeeded,
		"failed", len(report.Failures),
		"newArticles", report.NewArticles,
		"cancelled", report.Cancelled)

	return report, errors.Join(storeErrs...)
}

func (f *Fetcher) acquire(ctx context.Context, semCh chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case semCh <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	if ctx.Err() != nil {
		<-semCh

		return false
	}

	return true
}

func (f *Fetcher) syncFeed(ctx context.Context, feed domain.Feed) feedResult {
	ctx, cancel := context.WithTimeout(ctx, f.feedTimeout)
	defer cancel()

	result := feedResult{feed: feed}

	parsed, err := f.source.FetchFeed(ctx, feed.URL)
	if err != nil {
		f.log.WarnContext(ctx, "Failed to fetch feed",
			"error", err,
			"feedID", feed.ID,
			"feedURL", feed.URL)

		result.fetchErr = err

		return result
	}

	for _, entry := range parsed.Entries {
		inserted, ingestErr := f.store.IngestArticle(
			ctx,
			feed.ID,
			entry.Title,
			entry.URL,
			entry.Content,
			entry.PublishedAt,
		)
		if ingestErr != nil {
			f.log.ErrorContext(ctx, "Failed to ingest article",
				"error", ingestErr,
				"feedID", feed.ID,
				"articleURL", entry.URL)

			result.storeErr = fmt.Errorf("ingest article: %w", ingestErr)

			return result
		}

		if inserted {
			result.newArticles++
		}
	}

	if err = f.store.UpdateFeedMeta(ctx, feed.ID, parsed.Title, parsed.IconURL, time.Now()); err != nil {
		f.log.ErrorContext(ctx, "Failed to update feed metadata",
			"error", err,
			"feedID", feed.ID)

		result.storeErr = fmt.Errorf("update feed metadata: %w", err)

		return result
	}

	f.log.DebugContext(ctx, "Feed is synced",
		"feedID", feed.ID,
		"feedURL", feed.URL,
		"entries", len(parsed.Entries),
		"newArticles", result.newArticles)

	return result
}
