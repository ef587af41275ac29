package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"zenfeed/internal/domain"
)

const (
	defaultBriefingLimit = 15
	briefingSnippetRunes = 500
	briefingTTL          = time.Hour

	briefingPrompt = `You are a helpful news assistant. ` +
		`Summarize the provided news articles into a structured 'Daily Briefing'. ` +
		`Group them by topic if possible. Use Markdown formatting with bold headers and bullet points. ` +
		`Start with a 'Key Takeaways' section.`
)

var (
	ErrBriefingDisabled = errors.New("AI briefing is disabled in settings")
	ErrNoArticles       = errors.New("no articles found")
)

type Store interface {
	QueryArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	GetBoolSetting(ctx context.Context, key string, def bool) (bool, error)
}

// Briefer turns the most recent articles into a daily briefing.
type Briefer struct {
	store      Store
	summarizer Summarizer
	limit      int
	last       briefingMemo
	now        func() time.Time
	log        *slog.Logger
}

// NewBriefer accepts a nil summarizer; Generate then fails with
// ErrNotConfigured.
func NewBriefer(store Store, summarizer Summarizer, limit int, log *slog.Logger) *Briefer {
	if limit <= 0 {
		limit = defaultBriefingLimit
	}

	return &Briefer{
		store:      store,
		summarizer: summarizer,
		limit:      limit,
		now:        time.Now,
		log:        log,
	}
}

func (b *Briefer) Generate(ctx context.Context) (string, error) {
	enabled, err := b.store.GetBoolSetting(ctx, domain.SettingEnableAIBriefing, false)
	if err != nil {
		return "", fmt.Errorf("get briefing setting: %w", err)
	}
	if !enabled {
		return "", ErrBriefingDisabled
	}

	if b.summarizer == nil {
		return "", ErrNotConfigured
	}

	articles, err := b.store.QueryArticles(ctx, domain.ArticleFilter{Limit: b.limit})
	if err != nil {
		return "", fmt.Errorf("query articles: %w", err)
	}
	if len(articles) == 0 {
		return "", ErrNoArticles
	}

	key := articleSetKey(articles)

	if text, ok := b.last.lookup(key, b.now()); ok {
		b.log.DebugContext(ctx, "Briefing is reused",
			"articles", len(articles))

		return text, nil
	}

	text, err := b.summarizer.Summarize(ctx, Input{
		Instructions: briefingPrompt,
		Text:         BuildContext(articles),
	})
	if err != nil {
		return "", fmt.Errorf("summarize articles: %w", err)
	}

	b.last.store(key, text, b.now().Add(briefingTTL))

	b.log.InfoContext(ctx, "Briefing is generated",
		"articles", len(articles),
		"chars", len(text))

	return text, nil
}

// BuildContext renders articles as Title/Source/Content blocks separated by
// "---" lines. Content is cut to a short single-line snippet.
func BuildContext(articles []domain.Article) string {
	var sb strings.Builder

	for _, article := range articles {
		sb.WriteString("Title: ")
		sb.WriteString(article.Title)
		sb.WriteString("\nSource: ")
		sb.WriteString(article.FeedTitle)
		sb.WriteString("\nContent: ")
		sb.WriteString(snippet(article.Content, briefingSnippetRunes))
		sb.WriteString("\n---\n")
	}

	return sb.String()
}

func snippet(content string, maxRunes int) string {
	runes := []rune(content)
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}

	return strings.ReplaceAll(string(runes), "\n", " ")
}

// articleSetKey identifies the articles a briefing covers. Stored article
// content never changes, so new articles are the only way the key changes.
func articleSetKey(articles []domain.Article) string {
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, strconv.FormatInt(a.ID, 10))
	}

	return strings.Join(ids, ",")
}

// briefingMemo holds the latest briefing for up to briefingTTL.
type briefingMemo struct {
	mu        sync.Mutex
	key       string
	text      string
	expiresAt time.Time
}

func (m *briefingMemo) lookup(key string, now time.Time) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.text == "" || m.key != key || !now.Before(m.expiresAt) {
		return "", false
	}

	return m.text, true
}

func (m *briefingMemo) store(key string, text string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.key, m.text, m.expiresAt = key, text, expiresAt
}
