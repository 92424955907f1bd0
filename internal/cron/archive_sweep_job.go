package cron

import (
	"context"
	"fmt"

	"github.com/opremico/opremico-backend/pkg/logger"
	"github.com/opremico/opremico-backend/pkg/metrics"
)

const archiveSweepJobName = "archive-sweep"

type expiredSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ArchiveSweepJobParams configure the archive sweep job.
type ArchiveSweepJobParams struct {
	Logger  *logger.Logger
	Archive expiredSweeper
	Metrics *metrics.CronJobMetrics
}

// NewArchiveSweepJob builds the job that permanently removes archive entries
// whose recovery window has passed.
func NewArchiveSweepJob(params ArchiveSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Archive == nil {
		return nil, fmt.Errorf("archive service required")
	}
	return &archiveSweepJob{
		logg:    params.Logger,
		archive: params.Archive,
		metrics: params.Metrics,
	}, nil
}

type archiveSweepJob struct {
	logg    *logger.Logger
	archive expiredSweeper
	metrics *metrics.CronJobMetrics
}

func (j *archiveSweepJob) Name() string { return archiveSweepJobName }

func (j *archiveSweepJob) Run(ctx context.Context) error {
	purged, err := j.archive.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired archive entries: %w", err)
	}
	if j.metrics != nil && purged > 0 {
		j.metrics.AddPurged(archiveSweepJobName, purged)
	}
	logCtx := j.logg.WithField(ctx, "entries_purged", purged)
	j.logg.Info(logCtx, "archive sweep complete")
	return nil
}
