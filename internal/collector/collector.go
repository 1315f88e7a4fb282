package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
	"github.com/maxbolgarin/perftrend/internal/normalize"
	"github.com/panjf2000/ants/v2"
)

const defaultPoolSize = 32

// Fetch outcomes reported to the Recorder
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder receives collection statistics
type Recorder interface {
	ObserveFetch(set, outcome string, elapsed time.Duration)
	ObserveFormat(set string, format model.Format)
}

// Collector gathers the records of benchmark sets for a list of commits
type Collector struct {
	source   model.RecordSource
	pool     *ants.Pool
	recorder Recorder

	verbose bool
	log     logze.Logger
}

// Option configures a Collector
type Option func(*Collector)

// WithRecorder sets a statistics recorder
func WithRecorder(r Recorder) Option {
	return func(c *Collector) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithVerbose enables per-record debug logs
func WithVerbose(verbose bool) Option {
	return func(c *Collector) {
		c.verbose = verbose
	}
}

// New creates a collector that runs at most workers fetches at once
func New(source model.RecordSource, workers int, opts ...Option) (*Collector, error) {
	if source == nil {
		return nil, erro.New("record source is required")
	}
	pool, err := ants.NewPool(lang.Check(workers, defaultPoolSize))
	if err != nil {
		return nil, erro.Wrap(err, "failed to create ants pool")
	}

	c := &Collector{
		source:   source,
		pool:     pool,
		recorder: nopRecorder{},
		log:      logze.With("component", "collector"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close releases the worker pool
func (c *Collector) Close() {
	c.pool.Release()
}

// CollectAll collects every set concurrently. The result follows the order of sets.
func (c *Collector) CollectAll(ctx context.Context, commits []model.Commit, sets []string) []model.SetSeries {
	out := make([]model.SetSeries, len(sets))

	// every slot must be filled before returning, cancellation is observed per fetch
	waitCtx := context.WithoutCancel(ctx)

	waiterSet := abstract.NewWaiterSet(c.log)
	for i, set := range sets {
		waiterSet.Add(waitCtx, func(context.Context) error {
			out[i] = c.Collect(ctx, commits, set)
			return nil
		})
	}
	if err := waiterSet.Await(waitCtx); err != nil {
		c.log.Error("failed to collect sets", "error", err)
	}

	return out
}

// Collect returns one data point per commit for a single set, in commit order.
// Fetch failures are kept on their data point; an unknown record format fails
// the whole set and is reported in SetSeries.Err.
func (c *Collector) Collect(ctx context.Context, commits []model.Commit, set string) model.SetSeries {
	timer := abstract.StartTimer()
	log := c.log.WithFields("set", set)

	raws, fetchErrs := c.fetchAll(ctx, commits, set)

	series := model.SetSeries{
		Name:   set,
		Points: make([]model.DataPoint, len(commits)),
	}
	for i, commit := range commits {
		series.Points[i] = model.DataPoint{Commit: commit, Status: model.PointPresent}
		switch err := fetchErrs[i]; {
		case err == nil && raws[i] != nil:
		case err == nil, errors.Is(err, model.ErrRecordNotFound):
			series.Points[i].Status = model.PointMissing
			raws[i] = nil
		default:
			series.Points[i].Status = model.PointFailed
			series.Points[i].Err = err
			raws[i] = nil
			log.Warn("failed to fetch record", "commit", commit.SHA, "error", err)
		}
	}

	format, idx, err := normalize.Detect(raws)
	if err != nil {
		series.Err = &model.SchemaError{Set: set, Commit: commits[idx].SHA}
		for i := range series.Points {
			if raws[i] != nil {
				series.Points[i].Status = model.PointFailed
				series.Points[i].Err = series.Err
			}
		}
		log.Error("cannot detect record format", "commit", commits[idx].SHA, "error", series.Err)
		return series
	}
	series.Format = format
	c.recorder.ObserveFormat(set, format)

	errs := errm.NewList()
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		point := &series.Points[i]

		record, err := normalize.Normalize(format, raw)
		if err != nil {
			point.Status = model.PointFailed
			point.Err = err
			errs.Wrap(err, "failed to normalize record", "commit", point.Commit.SHA)
			continue
		}
		record.Set = set
		record.Commit = point.Commit
		record.Date = point.Commit.Date
		point.Record = &record
	}
	if err := errs.Err(); err != nil {
		log.Warn("some records were dropped", "error", err)
	}

	log.DebugIf(c.verbose, "collected set", "format", format, "commits", len(commits), "elapsed", timer.ElapsedTime().String())

	return series
}

// fetchAll fans fetches out to the pool; result slots are addressed by commit index
func (c *Collector) fetchAll(ctx context.Context, commits []model.Commit, set string) ([]model.RawRecord, []error) {
	raws := make([]model.RawRecord, len(commits))
	errs := make([]error, len(commits))

	var wg sync.WaitGroup
	for i, commit := range commits {
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			raws[i], errs[i] = c.fetch(ctx, commit.SHA, set)
		})
		if err != nil {
			wg.Done()
			errs[i] = erro.Wrap(err, "failed to submit fetch")
		}
	}
	wg.Wait()

	return raws, errs
}

func (c *Collector) fetch(ctx context.Context, sha, set string) (model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := abstract.StartTimer()
	raw, err := c.source.FetchRecord(ctx, sha, set)

	outcome := OutcomeFound
	switch {
	case errors.Is(err, model.ErrRecordNotFound):
		outcome = OutcomeNotFound
	case err != nil:
		outcome = OutcomeError
	}
	c.recorder.ObserveFetch(set, outcome, timer.ElapsedTime())
	c.log.DebugIf(c.verbose, "fetched record", "set", set, "commit", sha, "outcome", outcome)

	return raw, err
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, string, time.Duration) {}
func (nopRecorder) ObserveFormat(string, model.Format)         {}
