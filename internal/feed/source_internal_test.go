package feed

import (
	"testing"
	"time"
	"zenfeed/internal/domain"

	"github.com/mmcdole/gofeed"
)

func TestNormalizeItemTimestamps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	published := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item *gofeed.Item
		want time.Time
	}{
		{
			name: "published wins",
			item: &gofeed.Item{PublishedParsed: &published, UpdatedParsed: &updated},
			want: published,
		},
		{
			name: "updated is fallback",
			item: &gofeed.Item{UpdatedParsed: &updated},
			want: updated,
		},
		{
			name: "fetch time is last resort",
			item: &gofeed.Item{},
			want: now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeItem(tt.item, now)
			if !got.PublishedAt.Equal(tt.want) {
				t.Fatalf("unexpected published time: got %v want %v", got.PublishedAt, tt.want)
			}
		})
	}
}

func TestNormalizeItemContentPreference(t *testing.T) {
	tests := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{
			name: "content wins over description",
			item: &gofeed.Item{Content: "<p>Full</p>", Description: "<p>Summary</p>"},
			want: "Full",
		},
		{
			name: "description when content is blank",
			item: &gofeed.Item{Content: "  ", Description: "<p>Summary</p>"},
			want: "Summary",
		},
		{
			name: "synthetic fallback",
			item: &gofeed.Item{},
			want: domain.NoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeItem(tt.item, time.Now()).Content; got != tt.want {
				t.Fatalf("unexpected content: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeItemFallbacks(t *testing.T) {
	got := normalizeItem(&gofeed.Item{Title: "  ", Link: "  "}, time.Now())

	if got.Title != domain.NoTitle {
		t.Errorf("expected fallback title, got %q", got.Title)
	}
	if got.URL != "" {
		t.Errorf("expected empty URL fallback, got %q", got.URL)
	}
}
