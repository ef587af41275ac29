package summarizer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"zenfeed/internal/domain"
	"zenfeed/internal/summarizer"
)

type fakeStore struct {
	enabled  bool
	articles []domain.Article
	filter   domain.ArticleFilter
}

func (s *fakeStore) QueryArticles(_ context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	s.filter = filter

	return s.articles, nil
}

func (s *fakeStore) GetBoolSetting(_ context.Context, key string, def bool) (bool, error) {
	if key != domain.SettingEnableAIBriefing {
		return def, nil
	}

	return s.enabled, nil
}

type countingSummarizer struct {
	calls atomic.Int32
	last  summarizer.Input
}

func (s *countingSummarizer) Summarize(_ context.Context, input summarizer.Input) (string, error) {
	s.calls.Add(1)
	s.last = input

	return "briefing", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildContext(t *testing.T) {
	long := strings.Repeat("é", 600)

	got := summarizer.BuildContext([]domain.Article{
		{Title: "One", FeedTitle: "Feed A", Content: "line1\nline2"},
		{Title: "Two", FeedTitle: "Feed B", Content: long},
	})

	want := "Title: One\nSource: Feed A\nContent: line1 line2\n---\n" +
		"Title: Two\nSource: Feed B\nContent: " + strings.Repeat("é", 500) + "\n---\n"
	if got != want {
		t.Fatalf("unexpected context:\n%q\nwant:\n%q", got, want)
	}
}

func TestBrieferRequiresSetting(t *testing.T) {
	store := &fakeStore{articles: []domain.Article{{Title: "x"}}}
	sum := &countingSummarizer{}

	_, err := summarizer.NewBriefer(store, sum, 0, discardLogger()).Generate(context.Background())
	if !errors.Is(err, summarizer.ErrBriefingDisabled) {
		t.Fatalf("expected ErrBriefingDisabled, got %v", err)
	}
	if sum.calls.Load() != 0 {
		t.Fatalf("summarizer must not be called when disabled")
	}
}

func TestBrieferWithoutSummarizer(t *testing.T) {
	store := &fakeStore{enabled: true, articles: []domain.Article{{Title: "x"}}}

	_, err := summarizer.NewBriefer(store, nil, 0, discardLogger()).Generate(context.Background())
	if !errors.Is(err, summarizer.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err.Error() != "no summarizer configured" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestBrieferWithoutArticles(t *testing.T) {
	store := &fakeStore{enabled: true}

	_, err := summarizer.NewBriefer(store, &countingSummarizer{}, 0, discardLogger()).Generate(context.Background())
	if !errors.Is(err, summarizer.ErrNoArticles) {
		t.Fatalf("expected ErrNoArticles, got %v", err)
	}
}

func TestBrieferReusesBriefingForSameArticles(t *testing.T) {
	store := &fakeStore{
		enabled:  true,
		articles: []domain.Article{{ID: 1, Title: "One", FeedTitle: "Feed", Content: "body"}},
	}
	sum := &countingSummarizer{}
	briefer := summarizer.NewBriefer(store, sum, 7, discardLogger())

	for range 2 {
		text, err := briefer.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if text != "briefing" {
			t.Fatalf("unexpected briefing: %q", text)
		}
	}

	if sum.calls.Load() != 1 {
		t.Fatalf("expected one summarizer call, got %d", sum.calls.Load())
	}
	if store.filter.Limit != 7 {
		t.Fatalf("expected configured limit to be used, got %d", store.filter.Limit)
	}
	if !strings.Contains(sum.last.Instructions, "Daily Briefing") {
		t.Fatalf("unexpected instructions: %q", sum.last.Instructions)
	}

	store.articles = append([]domain.Article{{ID: 2, Title: "Two"}}, store.articles...)
	if _, err := briefer.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if sum.calls.Load() != 2 {
		t.Fatalf("expected a new article to produce a new briefing")
	}
}

func TestNewPicksBackend(t *testing.T) {
	if summarizer.New(nil, "") != nil {
		t.Fatalf("expected no summarizer without configuration")
	}

	if _, ok := summarizer.New([]string{"gemini"}, "key").(*summarizer.CommandSummarizer); !ok {
		t.Fatalf("expected command to take precedence")
	}

	if _, ok := summarizer.New(nil, "key").(*summarizer.OpenAISummarizer); !ok {
		t.Fatalf("expected OpenAI summarizer when only a key is set")
	}
}

func TestCommandSummarizer(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	s := summarizer.NewCommandSummarizer([]string{"sh", "-c", `printf '%s|' "$0"; cat`})

	got, err := s.Summarize(context.Background(), summarizer.Input{
		Instructions: "prompt",
		Text:         "articles",
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if got != "prompt|articles" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestCommandSummarizerReportsStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	s := summarizer.NewCommandSummarizer([]string{"sh", "-c", "echo quota exceeded >&2; exit 3"})

	_, err := s.Summarize(context.Background(), summarizer.Input{Text: "articles"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
