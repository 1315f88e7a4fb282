package report

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/maxbolgarin/perftrend/internal/model"
)

func ptr(v float64) *float64 { return &v }

func testCommits() []model.Commit {
	return []model.Commit{
		{SHA: "c1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Message: "first change"},
		{SHA: "c2", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Message: "second change"},
		{SHA: "c3", Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Message: "third change"},
	}
}

func present(c model.Commit, r model.Record) model.DataPoint {
	r.Commit = c
	r.Date = c.Date
	return model.DataPoint{Commit: c, Status: model.PointPresent, Record: &r}
}

func TestBuildSet(t *testing.T) {
	commits := testCommits()
	series := model.SetSeries{
		Name:   "string",
		Format: model.FormatNestedPhasesWithSize,
		Points: []model.DataPoint{
			present(commits[0], model.Record{
				TotalElapsed: ptr(3),
				OutputSize:   ptr(100),
				Phases: []model.Phase{
					{Name: "parse", Elapsed: 1, MemoryUsage: 10},
					{Name: "compile", Elapsed: 2, MemoryUsage: 20},
				},
			}),
			{Commit: commits[1], Status: model.PointMissing},
			present(commits[2], model.Record{
				TotalElapsed: ptr(5),
				Phases: []model.Phase{
					{Name: "compile", Elapsed: 4, MemoryUsage: 25},
					{Name: "link", Elapsed: 1, MemoryUsage: 5},
				},
			}),
		},
	}

	chart := BuildSet(series)

	if chart.Present != 2 {
		t.Errorf("Present = %d, want 2", chart.Present)
	}
	if diff := cmp.Diff([]string{"c2"}, chart.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if chart.Elapsed.Title != "Time elapsed over time (string.json)" {
		t.Errorf("elapsed title = %q", chart.Elapsed.Title)
	}
	if !chart.Elapsed.XMin.Equal(commits[0].Date) {
		t.Errorf("XMin = %v, want %v", chart.Elapsed.XMin, commits[0].Date)
	}

	wantElapsed := []Point{
		{X: commits[0].Date, Y: 3, SHA: "c1", Footer: "c1\nfirst change"},
		{X: commits[2].Date, Y: 5, SHA: "c3", Footer: "c3\nthird change"},
	}
	if diff := cmp.Diff(wantElapsed, chart.Elapsed.Datasets[0].Points); diff != "" {
		t.Errorf("elapsed points mismatch (-want +got):\n%s", diff)
	}

	var labels []string
	for _, d := range chart.MemoryUsage.Datasets {
		labels = append(labels, d.Label)
	}
	if diff := cmp.Diff([]string{"parse", "compile", "link"}, labels); diff != "" {
		t.Errorf("phase labels mismatch (-want +got):\n%s", diff)
	}
	if got := len(chart.MemoryUsage.Datasets[0].Points); got != 1 {
		t.Errorf("parse points = %d, want 1", got)
	}
	if got := chart.MemoryUsage.Datasets[1].Points[1].Y; got != 25 {
		t.Errorf("compile memory at c3 = %v, want 25", got)
	}

	if got := len(chart.OutputSize.Datasets[0].Points); got != 1 {
		t.Errorf("size points = %d, want 1", got)
	}
}

func TestBuildSet_Failed(t *testing.T) {
	commits := testCommits()
	schemaErr := &model.SchemaError{Set: "nft", Commit: "c1"}
	series := model.SetSeries{
		Name: "nft",
		Points: []model.DataPoint{
			{Commit: commits[0], Status: model.PointFailed, Err: schemaErr},
			{Commit: commits[1], Status: model.PointMissing},
		},
		Err: schemaErr,
	}

	chart := BuildSet(series)

	if chart.Error == "" {
		t.Error("expected set error")
	}
	if chart.Elapsed != nil || chart.MemoryUsage != nil || chart.OutputSize != nil {
		t.Error("failed set should have no charts")
	}
	if len(chart.Failed) != 1 || chart.Failed[0].SHA != "c1" {
		t.Errorf("Failed = %+v", chart.Failed)
	}
}

func TestBuild(t *testing.T) {
	commits := testCommits()
	aggregates := []model.Aggregate{
		{Commit: commits[0], Date: commits[0].Date, DatapointCount: 2, TotalElapsed: 7, AverageOutputSize: ptr(150), SizeDatapointCount: 2},
		{Commit: commits[1], Date: commits[1].Date},
		{Commit: commits[2], Date: commits[2].Date, DatapointCount: 1, TotalElapsed: 5},
	}
	series := []model.SetSeries{
		{Name: "string", Points: []model.DataPoint{{Commit: commits[0], Status: model.PointMissing}}},
		{Name: "nft", Err: &model.SchemaError{Set: "nft", Commit: "c1"}},
	}
	generated := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	snapshot := Build("run-1", generated, commits, series, aggregates)

	if snapshot.RunID != "run-1" || !snapshot.GeneratedAt.Equal(generated) {
		t.Errorf("unexpected header: %s %v", snapshot.RunID, snapshot.GeneratedAt)
	}
	if len(snapshot.Sets) != 2 || snapshot.Sets[0].Name != "string" {
		t.Fatalf("unexpected sets: %+v", snapshot.Sets)
	}
	if got := snapshot.FailedSets(); got != 1 {
		t.Errorf("FailedSets() = %d, want 1", got)
	}
	if got := snapshot.CommitsWithoutData(); got != 1 {
		t.Errorf("CommitsWithoutData() = %d, want 1", got)
	}

	if snapshot.TotalElapsed.Title != "Total time elapsed over time" {
		t.Errorf("total title = %q", snapshot.TotalElapsed.Title)
	}
	var shas []string
	for _, p := range snapshot.TotalElapsed.Datasets[0].Points {
		shas = append(shas, p.SHA)
	}
	if diff := cmp.Diff([]string{"c1", "c3"}, shas); diff != "" {
		t.Errorf("total points mismatch (-want +got):\n%s", diff)
	}

	size := snapshot.AverageOutputSize.Datasets[0].Points
	if len(size) != 1 || size[0].Y != 150 {
		t.Errorf("average size points = %+v", size)
	}

	if _, ok := snapshot.Set("nft"); !ok {
		t.Error("Set(nft) not found")
	}
	if _, ok := snapshot.Set("unknown"); ok {
		t.Error("Set(unknown) should not be found")
	}
}

func TestStore(t *testing.T) {
	store := NewStore()
	if store.Load() != nil {
		t.Fatal("empty store should return nil")
	}

	snapshot := &Snapshot{RunID: "a"}
	store.Save(snapshot)
	if got := store.Load(); got != snapshot {
		t.Errorf("Load() = %v, want %v", got, snapshot)
	}
}
