package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/rain-nowcast/internal/nowcast"
)

// Refresher is implemented by nowcast.Service.
type Refresher interface {
	RefreshAll(ctx context.Context, locs []nowcast.Location) int
}

// Scheduler periodically refreshes rain reports for configured locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	locations []nowcast.Location
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(locations []nowcast.Location, interval time.Duration, refresher Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Println("scheduler: running rain refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ok := s.refresher.RefreshAll(ctx, s.locations)
	log.Printf("scheduler: completed rain refresh job (%d/%d locations)", ok, len(s.locations))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
