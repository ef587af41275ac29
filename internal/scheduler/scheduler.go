package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
)

type Syncer interface {
	Sync() bool
}

// Scheduler triggers a sync cycle on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	syncer Syncer
	log    *slog.Logger
}

func New(spec string, syncer Syncer, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		cron:   c,
		spec:   spec,
		syncer: syncer,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.triggerSync); err != nil {
		return fmt.Errorf("add sync schedule %q: %w", s.spec, err)
	}

	s.cron.Start()

	return nil
}

// Stop waits for a running trigger to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) triggerSync() {
	if !s.syncer.Sync() {
		s.log.Info("Scheduled sync is skipped")

		return
	}

	s.log.Info("Scheduled sync is started")
}
