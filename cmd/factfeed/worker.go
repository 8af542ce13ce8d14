package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/scheduler"
	"github.com/Luismorlan/factfeed/utils"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/Luismorlan/factfeed/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	jobIngest    = "ingest"
	jobReconcile = "reconcile"
	jobSweep     = "sweep"
)

func (a *app) scheduler() *scheduler.Scheduler {
	poller := a.poller(cfg)
	return scheduler.New("scheduler", a.metrics,
		scheduler.Job{Name: jobIngest, Spec: cfg.Schedule.Ingest, Run: poller.Run},
		scheduler.Job{Name: jobReconcile, Spec: cfg.Schedule.Reconcile, Run: func(ctx context.Context) error {
			res, err := repository.ReconcileCounters(ctx, a.db)
			if err == nil {
				Log.WithFields(logrus.Fields{
					"votes_fixed":    res.VoteCountersFixed,
					"comments_fixed": res.CommentCountersFixed,
				}).Info("counters reconciled")
			}
			return err
		}},
		scheduler.Job{Name: jobSweep, Spec: cfg.Schedule.Sweep, Run: func(ctx context.Context) error {
			n, err := a.factChecks.SweepStale(ctx)
			if n > 0 {
				Log.WithField("jobs", n).Info("stale fact-check jobs failed")
			}
			return err
		}},
	)
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduled ingest, reconciliation and fact-check sweep jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			service := serviceName + "-worker"
			utils.StartTracer(service)
			utils.StartProfiler(service)
			defer utils.CloseTracer()
			defer utils.CloseProfiler()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			s := a.scheduler()
			if err := s.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			modules := append([]worker.Module{s}, a.eventModules()...)
			engine := worker.NewEngine(ctx, modules...)
			go func() {
				<-ctx.Done()
				engine.Shutdown()
			}()
			engine.Run()
			Log.Info("worker stopped")
			return nil
		},
	}
}

// runJob runs one scheduled job immediately and exits.
func runJob(name string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()
		return a.scheduler().RunOnce(cmd.Context(), name)
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Poll every enabled feed once",
		RunE:  runJob(jobIngest),
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute vote and comment counters that drifted",
		RunE:  runJob(jobReconcile),
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail fact-check jobs abandoned past their timeout",
		RunE:  runJob(jobSweep),
	}
}
