package engine

import (
	"context"
	"log/slog"
	"sync"
	"zenfeed/internal/domain"
	"zenfeed/internal/feed"
)

const (
	defaultWorkers = 4
	eventBuffer    = 64
)

type Syncer interface {
	SyncAll(ctx context.Context) (feed.Report, error)
}

type Extractor interface {
	ExtractFullText(ctx context.Context, article domain.Article) (string, error)
}

type Briefer interface {
	Generate(ctx context.Context) (string, error)
}

// Engine runs background work on behalf of a single interactive consumer.
// Results come back only through Events, one event per started job.
type Engine struct {
	ctx    context.Context
	cancel context.CancelFunc

	syncer    Syncer
	extractor Extractor
	briefer   Briefer

	events chan Event
	sem    chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger

	mu         sync.Mutex
	closed     bool
	syncCancel context.CancelFunc
	syncDone   chan struct{}
	extracting map[int64]struct{}
	briefing   bool
}

func New(syncer Syncer, extractor Extractor, briefer Briefer, workers int, log *slog.Logger) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		ctx:        ctx,
		cancel:     cancel,
		syncer:     syncer,
		extractor:  extractor,
		briefer:    briefer,
		events:     make(chan Event, eventBuffer),
		sem:        make(chan struct{}, workers),
		log:        log,
		extracting: make(map[int64]struct{}),
	}
}

// Events is closed by Close once every started job has reported.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Sync starts a sync cycle. A cycle that is still running is cancelled and
// the new one starts after it has drained, so at most one runs at a time.
// The superseded cycle still reports, with Report.Cancelled set.
func (e *Engine) Sync() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}

	if e.syncCancel != nil {
		e.syncCancel()
	}

	prevDone := e.syncDone
	ctx, cancel := context.WithCancel(e.ctx)
	done := make(chan struct{})
	e.syncCancel, e.syncDone = cancel, done

	e.wg.Go(func() {
		defer close(done)
		defer cancel()

		if prevDone != nil {
			<-prevDone
		}

		if ctx.Err() != nil {
			e.log.DebugContext(ctx, "Sync is superseded before start")
			e.emit(SyncFinished{Report: feed.Report{Cancelled: true}})

			return
		}

		report, err := e.syncer.SyncAll(ctx)
		if err != nil {
			e.log.ErrorContext(ctx, "Failed to sync feeds",
				"error", err)
		}

		e.emit(SyncFinished{Report: report, Err: err})
	})

	return true
}

// Extract starts full text extraction unless one is already pending for the
// same article.
func (e *Engine) Extract(article domain.Article) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	if _, ok := e.extracting[article.ID]; ok {
		return false
	}

	e.extracting[article.ID] = struct{}{}

	e.wg.Go(func() {
		text, err := e.runWorker(func(ctx context.Context) (string, error) {
			return e.extractor.ExtractFullText(ctx, article)
		})

		e.mu.Lock()
		delete(e.extracting, article.ID)
		e.mu.Unlock()

		e.emit(ExtractFinished{ArticleID: article.ID, Text: text, Err: err})
	})

	return true
}

// Briefing starts briefing generation unless one is already pending.
func (e *Engine) Briefing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.briefing {
		return false
	}

	e.briefing = true

	e.wg.Go(func() {
		text, err := e.runWorker(e.briefer.Generate)

		e.mu.Lock()
		e.briefing = false
		e.mu.Unlock()

		e.emit(BriefingFinished{Text: text, Err: err})
	})

	return true
}

// Close cancels running work, waits for every started job to report and
// closes the event channel. Events nobody reads are dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()

		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	close(e.events)
}

func (e *Engine) runWorker(job func(ctx context.Context) (string, error)) (string, error) {
	select {
	case e.sem <- struct{}{}:
	case <-e.ctx.Done():
		return "", e.ctx.Err()
	}
	defer func() { <-e.sem }()

	return job(e.ctx)
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
		return
	default:
	}

	select {
	case e.events <- ev:
	case <-e.ctx.Done():
		e.log.WarnContext(e.ctx, "Event is dropped on shutdown",
			"event", ev)
	}
}
