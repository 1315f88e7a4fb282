package report

import (
	"time"

	"github.com/maxbolgarin/perftrend/internal/model"
)

// Chart titles
const (
	totalElapsedTitle      = "Total time elapsed over time"
	averageOutputSizeTitle = "Average bytecode size over time"

	elapsedLabel    = "Time elapsed"
	outputSizeLabel = "Bytecode size"
)

// Point is a single chart point; Footer is the tooltip text
type Point struct {
	X      time.Time `json:"x"`
	Y      float64   `json:"y"`
	SHA    string    `json:"sha"`
	Footer string    `json:"footer"`
}

type Dataset struct {
	Label  string  `json:"label"`
	Points []Point `json:"data"`
}

// Chart is a time-axis line chart
type Chart struct {
	Title    string    `json:"title"`
	XMin     time.Time `json:"x_min"`
	Datasets []Dataset `json:"datasets"`
}

// FailedPoint is a commit whose record could not be fetched or normalized
type FailedPoint struct {
	SHA   string `json:"sha"`
	Error string `json:"error"`
}

// SetChart holds the charts of one benchmark set. When Error is set the charts are nil.
type SetChart struct {
	Name        string        `json:"name"`
	Format      model.Format  `json:"format,omitempty"`
	Error       string        `json:"error,omitempty"`
	Present     int           `json:"present"`
	Missing     []string      `json:"missing,omitempty"`
	Failed      []FailedPoint `json:"failed,omitempty"`
	Elapsed     *Chart        `json:"elapsed,omitempty"`
	MemoryUsage *Chart        `json:"memory_usage,omitempty"`
	OutputSize  *Chart        `json:"bytecode_size,omitempty"`
}

// Snapshot is the result of one pipeline run
type Snapshot struct {
	RunID             string            `json:"run_id"`
	GeneratedAt       time.Time         `json:"generated_at"`
	Commits           []model.Commit    `json:"commits"`
	Sets              []SetChart        `json:"sets"`
	TotalElapsed      Chart             `json:"total_elapsed"`
	AverageOutputSize Chart             `json:"average_bytecode_size"`
	Aggregates        []model.Aggregate `json:"aggregates"`
}

// Set returns the chart of the named set
func (s *Snapshot) Set(name string) (SetChart, bool) {
	for _, set := range s.Sets {
		if set.Name == name {
			return set, true
		}
	}
	return SetChart{}, false
}

// FailedSets returns the number of sets whose charts could not be built
func (s *Snapshot) FailedSets() int {
	var n int
	for _, set := range s.Sets {
		if set.Error != "" {
			n++
		}
	}
	return n
}

// CommitsWithoutData returns the number of commits without a single datapoint
func (s *Snapshot) CommitsWithoutData() int {
	var n int
	for _, agg := range s.Aggregates {
		if !agg.HasData() {
			n++
		}
	}
	return n
}

// Build turns collected series and per-commit aggregates into chart data
func Build(runID string, generatedAt time.Time, commits []model.Commit, series []model.SetSeries, aggregates []model.Aggregate) *Snapshot {
	snapshot := &Snapshot{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Commits:     commits,
		Sets:        make([]SetChart, 0, len(series)),
		Aggregates:  aggregates,
	}

	for _, s := range series {
		snapshot.Sets = append(snapshot.Sets, BuildSet(s))
	}

	xmin := earliest(commits)

	total := Dataset{Label: elapsedLabel}
	size := Dataset{Label: outputSizeLabel}
	for _, agg := range aggregates {
		if !agg.HasData() {
			continue
		}
		total.Points = append(total.Points, newPoint(agg.Commit, agg.TotalElapsed))
		if agg.AverageOutputSize != nil {
			size.Points = append(size.Points, newPoint(agg.Commit, *agg.AverageOutputSize))
		}
	}
	snapshot.TotalElapsed = Chart{Title: totalElapsedTitle, XMin: xmin, Datasets: []Dataset{total}}
	snapshot.AverageOutputSize = Chart{Title: averageOutputSizeTitle, XMin: xmin, Datasets: []Dataset{size}}

	return snapshot
}

// BuildSet prepares the elapsed, memory-per-phase and output size charts of a set.
// Points without a value are omitted so the charts keep gaps.
func BuildSet(s model.SetSeries) SetChart {
	chart := SetChart{
		Name:   s.Name,
		Format: s.Format,
	}
	for _, p := range s.Points {
		switch p.Status {
		case model.PointPresent:
			chart.Present++
		case model.PointMissing:
			chart.Missing = append(chart.Missing, p.Commit.SHA)
		case model.PointFailed:
			failed := FailedPoint{SHA: p.Commit.SHA}
			if p.Err != nil {
				failed.Error = p.Err.Error()
			}
			chart.Failed = append(chart.Failed, failed)
		}
	}
	if s.Err != nil {
		chart.Error = s.Err.Error()
		return chart
	}

	commits := make([]model.Commit, 0, len(s.Points))
	for _, p := range s.Points {
		commits = append(commits, p.Commit)
	}
	xmin := earliest(commits)
	records := s.Records()

	elapsed := Dataset{Label: elapsedLabel}
	size := Dataset{Label: outputSizeLabel}
	for _, r := range records {
		if r.TotalElapsed != nil {
			elapsed.Points = append(elapsed.Points, newPoint(r.Commit, *r.TotalElapsed))
		}
		if r.OutputSize != nil {
			size.Points = append(size.Points, newPoint(r.Commit, *r.OutputSize))
		}
	}

	chart.Elapsed = &Chart{Title: titleFor("Time elapsed over time", s.Name), XMin: xmin, Datasets: []Dataset{elapsed}}
	chart.MemoryUsage = &Chart{Title: titleFor("Memory usage per phase over time", s.Name), XMin: xmin, Datasets: memoryDatasets(records)}
	chart.OutputSize = &Chart{Title: titleFor("Bytecode size over time", s.Name), XMin: xmin, Datasets: []Dataset{size}}

	return chart
}

// memoryDatasets returns one dataset per phase name in first-seen order
func memoryDatasets(records []*model.Record) []Dataset {
	var datasets []Dataset
	index := make(map[string]int)
	for _, r := range records {
		for _, phase := range r.Phases {
			if _, ok := index[phase.Name]; ok {
				continue
			}
			index[phase.Name] = len(datasets)
			datasets = append(datasets, Dataset{Label: phase.Name})
		}
	}

	for i := range datasets {
		for _, r := range records {
			phase, ok := r.Phase(datasets[i].Label)
			if !ok {
				continue
			}
			datasets[i].Points = append(datasets[i].Points, newPoint(r.Commit, phase.MemoryUsage))
		}
	}

	return datasets
}

func newPoint(c model.Commit, y float64) Point {
	return Point{
		X:      c.Date,
		Y:      y,
		SHA:    c.SHA,
		Footer: c.SHA + "\n" + model.Subject(c.Message),
	}
}

func titleFor(prefix, set string) string {
	return prefix + " (" + set + ".json)"
}

func earliest(commits []model.Commit) time.Time {
	var xmin time.Time
	for i, c := range commits {
		if i == 0 || c.Date.Before(xmin) {
			xmin = c.Date
		}
	}
	return xmin
}
