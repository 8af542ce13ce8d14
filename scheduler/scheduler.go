// Package scheduler runs the periodic maintenance jobs of the worker on cron
// schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const DDOG_JOB_COUNTER = "factfeed.scheduler.runs"

// Job is one named unit of periodic work.
type Job struct {
	Name string
	// Spec is a standard 5 field cron expression evaluated in UTC.
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type Scheduler struct {
	name    string
	jobs    []Job
	metrics statsd.ClientInterface
}

func New(name string, metrics statsd.ClientInterface, jobs ...Job) *Scheduler {
	if metrics == nil {
		metrics = &statsd.NoOpClient{}
	}
	return &Scheduler{name: name, jobs: jobs, metrics: metrics}
}

// Validate checks every job has a unique name and a parseable schedule.
func (s *Scheduler) Validate() error {
	seen := map[string]bool{}
	for _, job := range s.jobs {
		if seen[job.Name] {
			return errors.Errorf("duplicate job name %s", job.Name)
		}
		seen[job.Name] = true
		if _, err := cron.ParseStandard(job.Spec); err != nil {
			return errors.Wrapf(err, "job %s", job.Name)
		}
	}
	return nil
}

// RunOnce executes one job by name outside of its schedule.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.execute(ctx, job)
		}
	}
	return errors.Errorf("unknown job %s", name)
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	start := time.Now()
	err := job.Run(ctx)
	logger := Log.WithFields(logrus.Fields{"job": job.Name, "elapsed": time.Since(start)})
	outcome := "success"
	if err != nil {
		outcome = "failure"
		logger.WithError(err).Error("scheduled job failed")
	} else {
		logger.Info("scheduled job finished")
	}
	if merr := s.metrics.Incr(DDOG_JOB_COUNTER, []string{"job:" + job.Name, "outcome:" + outcome}, 1); merr != nil {
		Log.Infoln("cannot report scheduled job")
	}
	return err
}

// RunModule starts the cron loop and blocks until ctx is done. Jobs still
// running at that point are waited for.
func (s *Scheduler) RunModule(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	for _, job := range s.jobs {
		job := job
		if _, err := c.AddFunc(job.Spec, func() { _ = s.execute(ctx, job) }); err != nil {
			return errors.Wrapf(err, "schedule job %s", job.Name)
		}
	}
	c.Start()
	Log.WithField("jobs", len(s.jobs)).Info("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) Name() string {
	return s.name
}
