package jobs

import (
	"context"
	"fmt"
	"log"

	"anoa.com/classhub/pkg/apperror"
	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		jobs: make([]Job, 0),
	}
}

// Register adds the job and schedules it when it has a cron spec.
func (s *Scheduler) Register(job Job) error {
	schedule := job.GetSchedule()
	if schedule != "" {
		_, err := s.cron.AddFunc(schedule, func() {
			log.Printf("[%s] starting scheduled run", job.GetName())
			if err := job.Execute(context.Background()); err != nil {
				log.Printf("[%s] run failed: %v", job.GetName(), err)
				return
			}
			log.Printf("[%s] run completed", job.GetName())
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.GetName(), err)
		}
		log.Printf("[%s] scheduled with cron: %s", job.GetName(), schedule)
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("job scheduler started with %d jobs", len(s.jobs))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("job scheduler stopped")
}

// RunByName executes a registered job immediately, outside its cron schedule.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.GetName() == name {
			return job.Execute(ctx)
		}
	}
	return fmt.Errorf("job %q is not registered: %w", name, apperror.ErrNotFound)
}

func (s *Scheduler) Names() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.GetName()
	}
	return names
}
