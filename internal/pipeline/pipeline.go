package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/aggregate"
	"github.com/maxbolgarin/perftrend/internal/collector"
	"github.com/maxbolgarin/perftrend/internal/model"
	"github.com/maxbolgarin/perftrend/internal/report"
	"github.com/maxbolgarin/perftrend/internal/telemetry"
)

// Pipeline lists commits, collects every set and folds them into a snapshot
type Pipeline struct {
	commits   model.CommitSource
	collector *collector.Collector
	metrics   *telemetry.Metrics

	cfg Config
	log logze.Logger
}

// New creates a pipeline. metrics may be nil.
func New(cfg Config, commits model.CommitSource, records model.RecordSource, metrics *telemetry.Metrics) (*Pipeline, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, erro.Wrap(err, "failed to prepare and validate config")
	}
	if commits == nil {
		return nil, erro.New("commit source is required")
	}

	opts := []collector.Option{collector.WithVerbose(cfg.Verbose)}
	if metrics != nil {
		opts = append(opts, collector.WithRecorder(metrics))
	}
	coll, err := collector.New(records, cfg.Workers, opts...)
	if err != nil {
		return nil, erro.Wrap(err, "failed to create collector")
	}

	return &Pipeline{
		commits:   commits,
		collector: coll,
		metrics:   metrics,
		cfg:       cfg,
		log:       logze.With("component", "pipeline"),
	}, nil
}

// Close releases the collector's workers
func (p *Pipeline) Close() {
	p.collector.Close()
}

// Sets returns the configured benchmark sets
func (p *Pipeline) Sets() []string {
	return p.cfg.Sets
}

// Run performs one full pass. Per-set and per-commit failures are reported inside
// the snapshot; an error is returned only when the run as a whole failed.
func (p *Pipeline) Run(ctx context.Context) (*report.Snapshot, error) {
	runID := uuid.NewString()
	log := p.log.WithFields("run_id", runID)
	timer := abstract.StartTimer()

	snapshot, err := p.run(ctx, runID, log)

	stats := telemetry.RunStats{Elapsed: timer.ElapsedTime(), Err: err}
	if snapshot != nil {
		stats.Commits = len(snapshot.Commits)
		stats.FailedSets = snapshot.FailedSets()
		stats.CommitsNoData = snapshot.CommitsWithoutData()
	}
	p.metrics.ObserveRun(stats)

	if err != nil {
		log.Error("run failed", "error", err, "elapsed", stats.Elapsed.String())
		return nil, err
	}

	log.Info("run finished",
		"commits", stats.Commits,
		"sets", len(snapshot.Sets),
		"failed_sets", stats.FailedSets,
		"commits_without_data", stats.CommitsNoData,
		"elapsed", stats.Elapsed.String(),
	)

	return snapshot, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, log logze.Logger) (*report.Snapshot, error) {
	commits, err := p.commits.ListCommits(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "failed to list commits")
	}
	log.Debug("listed commits", "count", len(commits))

	series := p.collector.CollectAll(ctx, commits, p.cfg.Sets)
	if err := ctx.Err(); err != nil {
		return nil, errm.Wrap(err, "run interrupted")
	}

	for _, s := range series {
		if s.Err != nil {
			log.Warn("set skipped", "set", s.Name, "error", s.Err)
		}
	}

	agg := aggregate.New(commits)
	if err := agg.AddAll(series); err != nil {
		log.Warn("some records were excluded from aggregates", "error", err)
	}

	return report.Build(runID, time.Now().UTC(), commits, series, agg.Result()), nil
}
