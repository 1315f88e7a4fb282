package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/perftrend/internal/config"
	"github.com/maxbolgarin/perftrend/internal/model"
	"github.com/maxbolgarin/perftrend/internal/pipeline"
	"github.com/maxbolgarin/perftrend/internal/provider"
	"github.com/maxbolgarin/perftrend/internal/report"
	"github.com/maxbolgarin/perftrend/internal/source"
)

type staticCommits []model.Commit

func (s staticCommits) ListCommits(context.Context) ([]model.Commit, error) {
	return s, nil
}

type mapSource map[string]string

func (m mapSource) FetchRecord(_ context.Context, sha, set string) (model.RawRecord, error) {
	data, ok := m[sha+"/"+set]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return model.DecodeRawRecord([]byte(data))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
provider:
  type: gitlab
  project: group/project
  limit: 20
source:
  type: dir
  dir: /var/lib/perf
pipeline:
  sets: [string, nft]
  workers: 8
schedule:
  refresh: "@hourly"
output:
  path: out/snapshot.json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Provider.Type != provider.GitLab || cfg.Provider.Project != "group/project" || cfg.Provider.Limit != 20 {
		t.Errorf("unexpected provider config: %+v", cfg.Provider)
	}
	if cfg.Source.Type != source.Dir || cfg.Source.Dir != "/var/lib/perf" {
		t.Errorf("unexpected source config: %+v", cfg.Source)
	}
	if len(cfg.Pipeline.Sets) != 2 || cfg.Pipeline.Workers != 8 {
		t.Errorf("unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if cfg.Schedule.Refresh != "@hourly" || cfg.Output.Path != "out/snapshot.json" {
		t.Errorf("unexpected schedule/output config: %+v %+v", cfg.Schedule, cfg.Output)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}

func TestRefresh(t *testing.T) {
	ctx := contem.New()
	defer ctx.Shutdown()

	out := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	cfg := config.Config{
		Pipeline: pipeline.Config{Sets: []string{"string"}, Workers: 2},
		Output:   config.OutputConfig{Path: out},
	}
	if err := cfg.PrepareAndValidate(); err != nil {
		t.Fatalf("PrepareAndValidate() error = %v", err)
	}

	commits := staticCommits{
		{SHA: "c1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Message: "first"},
		{SHA: "c2", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Message: "second"},
	}
	records := mapSource{
		"c1/string": `{"metrics": [{"phase": "parse", "elapsed": 2, "memoryUsage": 100}]}`,
	}

	s, err := newWithSources(ctx, cfg, commits, records)
	if err != nil {
		t.Fatalf("newWithSources() error = %v", err)
	}
	if s.Store().Load() != nil {
		t.Fatal("store should be empty before the first refresh")
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	snapshot := s.Store().Load()
	if snapshot == nil {
		t.Fatal("snapshot not stored")
	}
	if got := snapshot.Aggregates[0].TotalElapsed; got != 2 {
		t.Errorf("c1 total elapsed = %v, want 2", got)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	var written report.Snapshot
	if err := json.Unmarshal(data, &written); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if written.RunID != snapshot.RunID {
		t.Errorf("written run id = %q, want %q", written.RunID, snapshot.RunID)
	}
	if len(written.Sets) != 1 || written.Sets[0].Elapsed == nil {
		t.Errorf("unexpected written sets: %+v", written.Sets)
	}
}

func TestServe_Disabled(t *testing.T) {
	ctx := contem.New()
	defer ctx.Shutdown()

	cfg := config.Config{}
	if err := cfg.PrepareAndValidate(); err != nil {
		t.Fatalf("PrepareAndValidate() error = %v", err)
	}
	s, err := newWithSources(ctx, cfg, staticCommits{}, mapSource{})
	if err != nil {
		t.Fatalf("newWithSources() error = %v", err)
	}
	if err := s.Serve(ctx); err == nil {
		t.Error("Serve() expected error when the server is disabled")
	}
}

func TestScheduler(t *testing.T) {
	calls := make(chan struct{}, 10)
	sched := newScheduler("@every 1s", func(context.Context) error {
		calls <- struct{}{}
		return nil
	})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sched.Stop()

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled refresh did not run")
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	sched := newScheduler("not a schedule", func(context.Context) error { return nil })
	if err := sched.Start(context.Background()); err == nil {
		t.Error("Start() expected error for invalid spec")
	}
	sched.Stop()
}
