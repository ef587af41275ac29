package domain

import "time"

const (
	DefaultCategory     = "Uncategorized"
	DefaultArticleLimit = 100
	NoTitle             = "No Title"
	NoContent           = "No content available."
)

type Feed struct {
	ID          int64
	URL         string
	Title       string
	Category    string
	IconURL     string
	LastFetched *time.Time
	AddedAt     time.Time
}

type Article struct {
	ID          int64
	FeedID      int64
	FeedTitle   string
	Title       string
	URL         string
	Content     string
	FullContent *string
	PublishedAt time.Time
	IsRead      bool
	IsSaved     bool
	FetchedAt   time.Time
}

// Body returns the extracted full text when present and the feed-supplied
// content otherwise.
func (a *Article) Body() string {
	if a.FullContent != nil && *a.FullContent != "" {
		return *a.FullContent
	}

	return a.Content
}

// ArticleFilter fields are AND-ed. Zero values mean "not restricted".
type ArticleFilter struct {
	FeedID     int64
	Category   string
	UnreadOnly bool
	SavedOnly  bool
	SearchTerm string
	Limit      int
}

type Entry struct {
	Title       string
	URL         string
	Content     string
	PublishedAt time.Time
}

type ParsedFeed struct {
	Title   string
	IconURL string
	Entries []Entry
}

type Setting struct {
	Key   string
	Value string
}
