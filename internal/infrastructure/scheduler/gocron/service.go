package timescheduler

import (
	"fmt"
	"time"

	"github.com/cryptonote-pool/payoutd/internal/core/ports"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

type service struct {
	scheduler *gocron.Scheduler
}

// NewScheduler returns a gocron-backed scheduler service.
func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

func (s *service) AddNow(delta int64) int64 {
	return time.Now().Unix() + delta
}

func (s *service) ScheduleTaskOnce(at int64, task func()) error {
	delay := at - time.Now().Unix()
	if delay < 0 {
		return fmt.Errorf("cannot schedule task in the past")
	}
	if delay == 0 {
		delay = 1
	}

	// LimitRunsTo stops the job but keeps it registered, drop it after the
	// run so a long-lived daemon does not accumulate dead jobs
	tag := uuid.NewString()
	wrapped := func() {
		defer func() {
			// removal happens off the job goroutine, the executor may still
			// be tracking the run
			go func() {
				// nolint:errcheck
				s.scheduler.RemoveByTag(tag)
			}()
		}()
		task()
	}

	_, err := s.scheduler.Every(int(delay)).Seconds().
		WaitForSchedule().LimitRunsTo(1).Tag(tag).Do(wrapped)
	return err
}
