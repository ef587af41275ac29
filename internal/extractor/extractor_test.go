package extractor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"zenfeed/internal/domain"
	"zenfeed/internal/extractor"
	"zenfeed/internal/feed"
)

const articlePage = `<!doctype html>
<html><head><title>Post</title><script>var tracking = 1;</script></head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About us</a></nav>
  <div class="sidebar">Trending elsewhere</div>
  <article>
    <header><h1>Headline</h1><span class="byline">By Somebody</span></header>
    <p>The first paragraph of the story.</p>
    <p>A second paragraph with <a href="/more">a link</a>.</p>
    <table>
      <thead><tr><th>Year</th><th>Value</th></tr></thead>
      <tbody><tr><td>2024</td><td>42</td></tr></tbody>
    </table>
    <div id="comments"><p>Great post, first!</p></div>
  </article>
  <footer>Copyright notice</footer>
</body></html>`

type fakeStore struct {
	mu    sync.Mutex
	saved map[int64]string
}

func (s *fakeStore) SetFullContent(_ context.Context, articleID int64, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved == nil {
		s.saved = map[int64]string{}
	}
	s.saved[articleID] = text

	return true, nil
}

func (s *fakeStore) get(articleID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, ok := s.saved[articleID]

	return text, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExtractor(store extractor.Store) *extractor.Extractor {
	client := feed.NewHTTPClient("zenfeed-test", discardLogger(), feed.WithRetries(0, time.Millisecond))

	return extractor.New(client, store, time.Second, discardLogger())
}

func TestExtractFullText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, articlePage)
	}))
	defer srv.Close()

	store := &fakeStore{}

	text, err := newExtractor(store).ExtractFullText(context.Background(), domain.Article{ID: 7, URL: srv.URL})
	if err != nil {
		t.Fatalf("ExtractFullText failed: %v", err)
	}

	for _, want := range []string{"The first paragraph of the story.", "A second paragraph", "| Year", "2024"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in extracted text:\n%s", want, text)
		}
	}

	for _, unwanted := range []string{"About us", "Trending", "first!", "Copyright", "tracking", "Somebody"} {
		if strings.Contains(text, unwanted) {
			t.Fatalf("did not expect %q in extracted text:\n%s", unwanted, text)
		}
	}

	if saved, ok := store.get(7); !ok || saved != text {
		t.Fatalf("expected extracted text to be stored")
	}
}

func TestExtractFullTextFailureLeavesStoreUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := &fakeStore{}

	if _, err := newExtractor(store).ExtractFullText(context.Background(), domain.Article{ID: 1, URL: srv.URL}); err == nil {
		t.Fatalf("expected error for missing page")
	}

	if _, ok := store.get(1); ok {
		t.Fatalf("failed extraction must not write full content")
	}
}

func TestExtractFullTextWithoutReadableContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html><body><script>app()</script><nav>Menu</nav></body></html>`)
	}))
	defer srv.Close()

	_, err := newExtractor(&fakeStore{}).ExtractFullText(context.Background(), domain.Article{ID: 1, URL: srv.URL})
	if !errors.Is(err, extractor.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestExtractFullTextWithoutURL(t *testing.T) {
	_, err := newExtractor(&fakeStore{}).ExtractFullText(context.Background(), domain.Article{ID: 1})
	if !errors.Is(err, extractor.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestExtractFullTextIsSingleFlightPerArticle(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		started <- struct{}{}
		<-release
		_, _ = io.WriteString(w, articlePage)
	}))
	defer srv.Close()

	ext := newExtractor(&fakeStore{})
	article := domain.Article{ID: 3, URL: srv.URL}

	var wg sync.WaitGroup
	results := make([]string, 2)

	wg.Go(func() {
		results[0], _ = ext.ExtractFullText(context.Background(), article)
	})

	<-started

	wg.Go(func() {
		results[1], _ = ext.ExtractFullText(context.Background(), article)
	})

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if hits.Load() != 1 {
		t.Fatalf("expected one page fetch, got %d", hits.Load())
	}
	if results[0] == "" || results[0] != results[1] {
		t.Fatalf("expected both callers to receive the same text")
	}
}
