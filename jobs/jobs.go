package jobs

import (
	"context"
	"time"

	"TenantHub/config"
	"TenantHub/services"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runTimeout bounds one scheduled run.
const runTimeout = 30 * time.Minute

type Scheduler struct {
	cron       *cron.Cron
	docs       *services.DocumentManager
	cfg        config.JobsConfig
	stagingTTL time.Duration
	log        *zap.Logger
}

func NewScheduler(docs *services.DocumentManager, cfg *config.Config, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:       cron.New(),
		docs:       docs,
		cfg:        cfg.Jobs,
		stagingTTL: cfg.Storage.StagingTTL,
		log:        log.Named("jobs"),
	}
}

/*
* Nightly orphan sweep over every company
* Periodic cleanup of abandoned staged uploads
 */
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OrphanSweepSchedule, func() {
		s.log.Info("Running orphan sweep")
		s.RunOrphanSweep(context.Background())
	}); err != nil {
		return errors.Wrapf(err, "schedule orphan sweep %q", s.cfg.OrphanSweepSchedule)
	}
	if _, err := s.cron.AddFunc(s.cfg.StagingCleanSchedule, func() {
		s.RunStagingCleanup(context.Background())
	}); err != nil {
		return errors.Wrapf(err, "schedule staging cleanup %q", s.cfg.StagingCleanSchedule)
	}
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) RunOrphanSweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	reports, err := s.docs.SweepAll(ctx)
	if err != nil {
		s.log.Error("Error from sweepAll", zap.Error(err))
		return
	}
	var records, files, dirs, warnings int
	for _, r := range reports {
		records += r.DanglingRecords
		files += r.UntrackedFiles
		dirs += r.StaleDirs
		warnings += len(r.Warnings)
		if len(r.Warnings) > 0 {
			s.log.Warn("Sweep finished with warnings", zap.String("tenantId", r.TenantID), zap.Strings("warnings", r.Warnings))
		}
	}
	s.log.Info("Orphan sweep done",
		zap.Int("companies", len(reports)),
		zap.Int("danglingRecords", records),
		zap.Int("untrackedFiles", files),
		zap.Int("staleDirs", dirs),
		zap.Int("warnings", warnings),
	)
}

func (s *Scheduler) RunStagingCleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	n, err := s.docs.CleanStaging(ctx, s.stagingTTL)
	if err != nil {
		s.log.Error("Error from cleanStaging", zap.Int("removed", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("Removed abandoned staged uploads", zap.Int("removed", n))
	}
}
