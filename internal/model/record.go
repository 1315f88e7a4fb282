package model

import (
	"time"
)

// Format is the structural shape a benchmark set's raw records were written in
type Format string

const (
	// FormatNone is reported for a set that has no records at all
	FormatNone Format = ""
	// FormatFlatPhases has a top-level metrics list and no elapsed total
	FormatFlatPhases Format = "flat_phases"
	// FormatNestedPhases keeps the metrics list under a phases object
	FormatNestedPhases Format = "nested_phases"
	// FormatNestedPhasesWithSize additionally carries bytecode_size under phases
	FormatNestedPhasesWithSize Format = "nested_phases_with_size"
	// FormatCanonical has a top-level elapsed total and optional bytecode_size
	FormatCanonical Format = "canonical"
)

// Phase is one build stage measurement
type Phase struct {
	Name        string  `json:"phase"`
	Elapsed     float64 `json:"elapsed"`
	MemoryUsage float64 `json:"memory_usage"`
}

// Record is a format-independent measurement of one benchmark set at one commit.
// TotalElapsed is nil when the raw record had neither a total nor phases,
// OutputSize is nil when the set does not track output size.
type Record struct {
	Set          string    `json:"set"`
	Commit       Commit    `json:"commit"`
	Date         time.Time `json:"date"`
	TotalElapsed *float64  `json:"elapsed"`
	OutputSize   *float64  `json:"bytecode_size"`
	Phases       []Phase   `json:"metrics"`
	Format       Format    `json:"format"`
}

// Phase returns the phase with the given name
func (r *Record) Phase(name string) (Phase, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// PointStatus tells whether a data point carries a record
type PointStatus string

const (
	PointPresent PointStatus = "present"
	PointMissing PointStatus = "missing"
	PointFailed  PointStatus = "failed"
)

// DataPoint is the outcome for one commit in a set series
type DataPoint struct {
	Commit Commit
	Status PointStatus
	Record *Record
	Err    error
}

// IsPresent returns true if the point carries a normalized record
func (p DataPoint) IsPresent() bool {
	return p.Status == PointPresent && p.Record != nil
}

// SetSeries is the commit-ordered collection of one benchmark set.
// Err is set when the whole set could not be built, e.g. its format is unknown.
type SetSeries struct {
	Name   string
	Format Format
	Points []DataPoint
	Err    error
}

// Records returns present records in commit order
func (s SetSeries) Records() []*Record {
	out := make([]*Record, 0, len(s.Points))
	for _, p := range s.Points {
		if p.IsPresent() {
			out = append(out, p.Record)
		}
	}
	return out
}

// Aggregate is one commit's measurements folded across all benchmark sets.
// AverageOutputSize is nil when no set reported an output size for the commit.
type Aggregate struct {
	Commit             Commit    `json:"commit"`
	Date               time.Time `json:"date"`
	DatapointCount     int       `json:"datapoint_count"`
	TotalElapsed       float64   `json:"elapsed"`
	AverageOutputSize  *float64  `json:"bytecode_size"`
	SizeDatapointCount int       `json:"size_datapoint_count"`
}

// HasData returns true if at least one set contributed to the aggregate
func (a Aggregate) HasData() bool {
	return a.DatapointCount > 0
}
