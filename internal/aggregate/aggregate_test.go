package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/maxbolgarin/perftrend/internal/model"
)

var (
	day = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	c1  = model.Commit{SHA: "c1", Date: day, Message: "first"}
	c2  = model.Commit{SHA: "c2", Date: day.Add(24 * time.Hour), Message: "second"}
	c3  = model.Commit{SHA: "c3", Date: day.Add(48 * time.Hour), Message: "third"}
)

func ptr(v float64) *float64 {
	return &v
}

func present(c model.Commit, elapsed, size *float64) model.DataPoint {
	return model.DataPoint{
		Commit: c,
		Status: model.PointPresent,
		Record: &model.Record{Commit: c, Date: c.Date, TotalElapsed: elapsed, OutputSize: size},
	}
}

func missing(c model.Commit) model.DataPoint {
	return model.DataPoint{Commit: c, Status: model.PointMissing}
}

func TestConcreteScenario(t *testing.T) {
	set := model.SetSeries{
		Name:   "string",
		Format: model.FormatFlatPhases,
		Points: []model.DataPoint{present(c1, ptr(5), nil), missing(c2)},
	}

	a := New([]model.Commit{c1, c2})
	if err := a.Add(set); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	want := []model.Aggregate{
		{Commit: c1, Date: c1.Date, DatapointCount: 1, TotalElapsed: 5},
		{Commit: c2, Date: c2.Date},
	}
	got := a.Result()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Result() mismatch (-want +got):\n%s", diff)
	}
	if got[1].HasData() {
		t.Error("c2 reports data")
	}
	if got[1].AverageOutputSize != nil {
		t.Errorf("c2 average = %v, want no data", *got[1].AverageOutputSize)
	}
}

func TestAverageOutputSize(t *testing.T) {
	s1 := model.SetSeries{Name: "a", Points: []model.DataPoint{present(c1, ptr(1), ptr(100)), present(c2, ptr(2), ptr(300))}}
	s2 := model.SetSeries{Name: "b", Points: []model.DataPoint{present(c1, ptr(3), ptr(200)), missing(c2)}}
	s3 := model.SetSeries{Name: "c", Points: []model.DataPoint{present(c1, ptr(4), nil), present(c2, ptr(5), nil)}}

	a := New([]model.Commit{c1, c2})
	if err := a.AddAll([]model.SetSeries{s1, s2, s3}); err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}

	want := []model.Aggregate{
		{Commit: c1, Date: c1.Date, DatapointCount: 3, TotalElapsed: 8, AverageOutputSize: ptr(150), SizeDatapointCount: 2},
		{Commit: c2, Date: c2.Date, DatapointCount: 2, TotalElapsed: 7, AverageOutputSize: ptr(300), SizeDatapointCount: 1},
	}
	if diff := cmp.Diff(want, a.Result()); diff != "" {
		t.Errorf("Result() mismatch (-want +got):\n%s", diff)
	}
}

func TestCommutative(t *testing.T) {
	s1 := model.SetSeries{Name: "s1", Points: []model.DataPoint{present(c1, ptr(1.5), ptr(10)), present(c2, ptr(2), nil), missing(c3)}}
	s2 := model.SetSeries{Name: "s2", Points: []model.DataPoint{missing(c1), present(c2, ptr(4.25), ptr(20)), present(c3, ptr(8), ptr(30))}}
	commits := []model.Commit{c1, c2, c3}

	forward := New(commits)
	if err := forward.AddAll([]model.SetSeries{s1, s2}); err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}
	backward := New(commits)
	if err := backward.AddAll([]model.SetSeries{s2, s1}); err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}

	if diff := cmp.Diff(forward.Result(), backward.Result()); diff != "" {
		t.Errorf("aggregation depends on set order (-s1s2 +s2s1):\n%s", diff)
	}
}

func TestZeroDatapoints(t *testing.T) {
	a := New([]model.Commit{c1, c2})
	if err := a.AddAll(nil); err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}

	for _, agg := range a.Result() {
		if agg.DatapointCount != 0 || agg.HasData() {
			t.Errorf("%s count = %d", agg.Commit.SHA, agg.DatapointCount)
		}
		if agg.AverageOutputSize != nil {
			t.Errorf("%s average = %v, want no data", agg.Commit.SHA, *agg.AverageOutputSize)
		}
		if math.IsNaN(agg.TotalElapsed) {
			t.Errorf("%s elapsed is NaN", agg.Commit.SHA)
		}
	}
}

func TestResultKeepsCommitOrder(t *testing.T) {
	a := New([]model.Commit{c3, c1, c2, c1})
	got := a.Result()

	var shas []string
	for _, agg := range got {
		shas = append(shas, agg.Commit.SHA)
	}
	if diff := cmp.Diff([]string{"c3", "c1", "c2"}, shas); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFailedSetIsSkipped(t *testing.T) {
	failed := model.SetSeries{
		Name:   "broken",
		Points: []model.DataPoint{present(c1, ptr(100), ptr(100))},
		Err:    &model.SchemaError{Set: "broken", Commit: "c1"},
	}

	a := New([]model.Commit{c1})
	if err := a.Add(failed); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got := a.Result()[0]; got.HasData() {
		t.Errorf("failed set contributed: %+v", got)
	}
}

func TestExcludedRecords(t *testing.T) {
	stranger := model.Commit{SHA: "zz", Date: day}
	set := model.SetSeries{
		Name: "nft",
		Points: []model.DataPoint{
			present(c1, nil, ptr(5)),
			present(c2, ptr(math.NaN()), nil),
			present(stranger, ptr(1), nil),
			present(c3, ptr(2), ptr(math.Inf(1))),
		},
	}

	a := New([]model.Commit{c1, c2, c3})
	if err := a.Add(set); err == nil {
		t.Fatal("Add() error = nil, want excluded records reported")
	}

	for _, agg := range a.Result() {
		if agg.HasData() {
			t.Errorf("%s has %d datapoints, want 0", agg.Commit.SHA, agg.DatapointCount)
		}
		if math.IsNaN(agg.TotalElapsed) || math.IsInf(agg.TotalElapsed, 0) {
			t.Errorf("%s elapsed = %v", agg.Commit.SHA, agg.TotalElapsed)
		}
	}
}
