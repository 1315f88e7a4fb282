// Package aggregate folds the series of all benchmark sets into one record per commit.
package aggregate

import (
	"math"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/perftrend/internal/model"
)

type accumulator struct {
	commit     model.Commit
	count      int
	elapsedSum float64
	sizeSum    float64
	sizeCount  int
}

// Aggregator sums elapsed time and averages output size per commit across sets.
// Every commit is seeded before any set is added, so sets can be folded in any order.
type Aggregator struct {
	order []string
	accs  map[string]*accumulator
}

// New seeds one accumulator per commit
func New(commits []model.Commit) *Aggregator {
	a := &Aggregator{
		order: make([]string, 0, len(commits)),
		accs:  make(map[string]*accumulator, len(commits)),
	}
	for _, c := range commits {
		if _, ok := a.accs[c.SHA]; ok {
			continue
		}
		a.order = append(a.order, c.SHA)
		a.accs[c.SHA] = &accumulator{commit: c}
	}
	return a
}

// Add folds the present records of a set. Sets that failed as a whole are skipped.
// Records that cannot contribute are left out and reported in the returned error.
func (a *Aggregator) Add(series model.SetSeries) error {
	if series.Err != nil {
		return nil
	}

	errs := errm.NewList()
	for _, p := range series.Points {
		if !p.IsPresent() {
			continue
		}
		if err := a.fold(p.Record); err != nil {
			errs.Wrap(err, "record excluded from aggregate", "set", series.Name, "commit", p.Commit.SHA)
		}
	}

	return errs.Err()
}

// AddAll folds several sets and collects their errors
func (a *Aggregator) AddAll(series []model.SetSeries) error {
	errs := errm.NewList()
	for _, s := range series {
		if err := a.Add(s); err != nil {
			errs.Wrap(err, "failed to aggregate set", "set", s.Name)
		}
	}
	return errs.Err()
}

func (a *Aggregator) fold(r *model.Record) error {
	acc, ok := a.accs[r.Commit.SHA]
	if !ok {
		return model.ErrUnknownCommit
	}
	if r.TotalElapsed == nil {
		return model.ErrMissingElapsed
	}
	if !isFinite(*r.TotalElapsed) {
		return &model.MetricError{Field: "elapsed", Value: *r.TotalElapsed}
	}
	if r.OutputSize != nil && !isFinite(*r.OutputSize) {
		return &model.MetricError{Field: "bytecode_size", Value: *r.OutputSize}
	}

	acc.count++
	acc.elapsedSum += *r.TotalElapsed
	if r.OutputSize != nil {
		acc.sizeSum += *r.OutputSize
		acc.sizeCount++
	}

	return nil
}

// Result finalizes the aggregates in the order commits were seeded
func (a *Aggregator) Result() []model.Aggregate {
	out := make([]model.Aggregate, 0, len(a.order))
	for _, sha := range a.order {
		acc := a.accs[sha]
		agg := model.Aggregate{
			Commit:             acc.commit,
			Date:               acc.commit.Date,
			DatapointCount:     acc.count,
			TotalElapsed:       acc.elapsedSum,
			SizeDatapointCount: acc.sizeCount,
		}
		if acc.sizeCount > 0 {
			avg := acc.sizeSum / float64(acc.sizeCount)
			agg.AverageOutputSize = &avg
		}
		out = append(out, agg)
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
