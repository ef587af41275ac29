package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
	"zenfeed/internal/domain"
	"zenfeed/internal/engine"
	"zenfeed/internal/feed"
)

const eventTimeout = 2 * time.Second

type blockingSyncer struct {
	calls   atomic.Int32
	started chan int32
	hold    chan struct{}
}

// The first call blocks until cancelled and, when hold is set, until hold is
// closed. Later calls return at once.
func (s *blockingSyncer) SyncAll(ctx context.Context) (feed.Report, error) {
	n := s.calls.Add(1)
	s.started <- n

	if n == 1 {
		<-ctx.Done()
		if s.hold != nil {
			<-s.hold
		}

		return feed.Report{Feeds: 2, Succeeded: 1, Cancelled: true}, nil
	}

	return feed.Report{Feeds: 2, Succeeded: 2}, nil
}

type gatedExtractor struct {
	calls   atomic.Int32
	release chan struct{}
}

func (e *gatedExtractor) ExtractFullText(ctx context.Context, article domain.Article) (string, error) {
	e.calls.Add(1)

	select {
	case <-e.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if article.URL == "" {
		return "", errors.New("no url")
	}

	return "full text of " + article.Title, nil
}

type gatedBriefer struct {
	release chan struct{}
}

func (b *gatedBriefer) Generate(ctx context.Context) (string, error) {
	select {
	case <-b.release:
		return "briefing", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nextEvent(t *testing.T, eng *engine.Engine) engine.Event {
	t.Helper()

	select {
	case ev := <-eng.Events():
		return ev
	case <-time.After(eventTimeout):
		t.Fatalf("timed out waiting for event")

		return nil
	}
}

func expectNoEvent(t *testing.T, eng *engine.Engine) {
	t.Helper()

	select {
	case ev := <-eng.Events():
		t.Fatalf("unexpected event: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSyncSupersedesRunningSync(t *testing.T) {
	syncer := &blockingSyncer{started: make(chan int32, 4)}
	eng := engine.New(syncer, nil, nil, 2, discardLogger())
	defer eng.Close()

	if !eng.Sync() {
		t.Fatalf("expected first sync to start")
	}
	<-syncer.started

	if !eng.Sync() {
		t.Fatalf("expected second sync to start")
	}

	first, ok := nextEvent(t, eng).(engine.SyncFinished)
	if !ok || !first.Report.Cancelled {
		t.Fatalf("expected cancelled report from superseded sync, got %#v", first)
	}

	second, ok := nextEvent(t, eng).(engine.SyncFinished)
	if !ok || second.Report.Cancelled || second.Report.Succeeded != 2 || second.Err != nil {
		t.Fatalf("expected completed report from second sync, got %#v", second)
	}

	expectNoEvent(t, eng)
}

func TestSyncReportsOncePerCall(t *testing.T) {
	syncer := &blockingSyncer{started: make(chan int32, 4), hold: make(chan struct{})}
	eng := engine.New(syncer, nil, nil, 2, discardLogger())
	defer eng.Close()

	eng.Sync()
	<-syncer.started
	eng.Sync()
	eng.Sync()
	close(syncer.hold)

	cancelled := 0
	for range 3 {
		ev, ok := nextEvent(t, eng).(engine.SyncFinished)
		if !ok {
			t.Fatalf("expected SyncFinished, got %#v", ev)
		}
		if ev.Report.Cancelled {
			cancelled++
		}
	}

	if cancelled != 2 {
		t.Fatalf("expected two superseded syncs, got %d", cancelled)
	}
	if got := syncer.calls.Load(); got != 2 {
		t.Fatalf("expected a sync superseded before start to skip the syncer, got %d calls", got)
	}

	expectNoEvent(t, eng)
}

func TestExtractIsSingleFlightPerArticle(t *testing.T) {
	ext := &gatedExtractor{release: make(chan struct{})}
	eng := engine.New(nil, ext, nil, 4, discardLogger())
	defer eng.Close()

	a := domain.Article{ID: 1, Title: "A", URL: "http://example.com/a"}
	b := domain.Article{ID: 2, Title: "B"}

	if !eng.Extract(a) {
		t.Fatalf("expected extraction to start")
	}
	if eng.Extract(a) {
		t.Fatalf("expected duplicate extraction to be rejected")
	}
	if !eng.Extract(b) {
		t.Fatalf("expected extraction of another article to start")
	}

	close(ext.release)

	results := map[int64]engine.ExtractFinished{}
	for range 2 {
		ev, ok := nextEvent(t, eng).(engine.ExtractFinished)
		if !ok {
			t.Fatalf("expected ExtractFinished, got %#v", ev)
		}
		results[ev.ArticleID] = ev
	}

	if results[1].Text != "full text of A" || results[1].Err != nil {
		t.Fatalf("unexpected result for article 1: %#v", results[1])
	}
	if results[2].Err == nil {
		t.Fatalf("expected failure for article 2")
	}
	if ext.calls.Load() != 2 {
		t.Fatalf("expected two extractor calls, got %d", ext.calls.Load())
	}

	if !eng.Extract(a) {
		t.Fatalf("expected extraction to be allowed again after completion")
	}
	if ev, ok := nextEvent(t, eng).(engine.ExtractFinished); !ok || ev.ArticleID != 1 {
		t.Fatalf("unexpected event: %#v", ev)
	}
}

func TestBriefingIsSingleFlight(t *testing.T) {
	briefer := &gatedBriefer{release: make(chan struct{})}
	eng := engine.New(nil, nil, briefer, 1, discardLogger())
	defer eng.Close()

	if !eng.Briefing() {
		t.Fatalf("expected briefing to start")
	}
	if eng.Briefing() {
		t.Fatalf("expected pending briefing to reject a second request")
	}

	close(briefer.release)

	ev, ok := nextEvent(t, eng).(engine.BriefingFinished)
	if !ok || ev.Text != "briefing" || ev.Err != nil {
		t.Fatalf("unexpected event: %#v", ev)
	}

	expectNoEvent(t, eng)
}

func TestCloseReportsPendingWorkAndClosesEvents(t *testing.T) {
	ext := &gatedExtractor{release: make(chan struct{})}
	eng := engine.New(nil, ext, nil, 1, discardLogger())

	eng.Extract(domain.Article{ID: 1, URL: "http://example.com/1"})

	done := make(chan struct{})
	go func() {
		eng.Close()
		close(done)
	}()

	var events []engine.Event
	for ev := range eng.Events() {
		events = append(events, ev)
	}
	<-done

	if len(events) > 1 {
		t.Fatalf("expected at most one event, got %d", len(events))
	}
	if len(events) == 1 {
		ev, ok := events[0].(engine.ExtractFinished)
		if !ok || !errors.Is(ev.Err, context.Canceled) {
			t.Fatalf("expected cancelled extraction, got %#v", events[0])
		}
	}

	if eng.Sync() || eng.Extract(domain.Article{ID: 2}) || eng.Briefing() {
		t.Fatalf("closed engine must not start work")
	}
}
