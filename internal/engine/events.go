package engine

import "zenfeed/internal/feed"

// Event is a completion notice delivered on Engine.Events.
type Event interface {
	event()
}

type SyncFinished struct {
	Report feed.Report
	Err    error
}

type ExtractFinished struct {
	ArticleID int64
	Text      string
	Err       error
}

type BriefingFinished struct {
	Text string
	Err  error
}

func (SyncFinished) event()     {}
func (ExtractFinished) event()  {}
func (BriefingFinished) event() {}
