package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/config"
	"github.com/maxbolgarin/perftrend/internal/model"
	"github.com/maxbolgarin/perftrend/internal/pipeline"
	"github.com/maxbolgarin/perftrend/internal/provider"
	"github.com/maxbolgarin/perftrend/internal/report"
	"github.com/maxbolgarin/perftrend/internal/server"
	"github.com/maxbolgarin/perftrend/internal/source"
	"github.com/maxbolgarin/perftrend/internal/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Perftrend wires commit history, record storage, the pipeline and the API together
type Perftrend struct {
	pipeline *pipeline.Pipeline
	store    *report.Store
	metrics  *telemetry.Metrics
	server   *server.Server

	refreshMu sync.Mutex

	cfg config.Config
	log logze.Logger
}

// LoadConfig reads the YAML config at path with env overrides, or env only when path is empty
func LoadConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, errm.Wrap(err, "failed to read env")
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, errm.Wrap(err, "failed to read config")
	}
	return cfg, nil
}

// New creates the service
func New(ctx contem.Context, cfg config.Config) (*Perftrend, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "invalid config")
	}

	commits, err := provider.NewProvider(cfg.Provider)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create commit provider")
	}
	records, err := source.New(cfg.Source)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create record source")
	}

	return newWithSources(ctx, cfg, provider.NewFetcher(commits), records)
}

func newWithSources(ctx contem.Context, cfg config.Config, commits model.CommitSource, records model.RecordSource) (*Perftrend, error) {
	s := &Perftrend{
		store:   report.NewStore(),
		metrics: telemetry.New(),
		cfg:     cfg,
		log:     logze.With("component", "app"),
	}

	var err error
	s.pipeline, err = pipeline.New(cfg.Pipeline, commits, records, s.metrics)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create pipeline")
	}
	ctx.Add(func(context.Context) error {
		s.pipeline.Close()
		return nil
	})

	if cfg.Server.Enabled {
		s.server, err = server.New(cfg.Server, s.store, s.metrics.Handler(), s.Refresh)
		if err != nil {
			return nil, errm.Wrap(err, "failed to create server")
		}
		ctx.Add(s.server.Stop)
	}

	return s, nil
}

// Store returns the snapshot store
func (s *Perftrend) Store() *report.Store {
	return s.store
}

// Refresh runs the pipeline once, publishes the snapshot and writes it to the output file.
// Concurrent calls are serialized.
func (s *Perftrend) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	snapshot, err := s.pipeline.Run(ctx)
	if err != nil {
		return errm.Wrap(err, "failed to run pipeline")
	}
	s.store.Save(snapshot)

	if s.cfg.Output.Path != "" {
		if err := writeSnapshot(s.cfg.Output.Path, snapshot); err != nil {
			return errm.Wrap(err, "failed to write snapshot")
		}
		s.log.Info("snapshot written", "path", s.cfg.Output.Path, "run_id", snapshot.RunID)
	}

	return nil
}

// Serve starts the API server and the refresh schedule and blocks until ctx is done
func (s *Perftrend) Serve(ctx contem.Context) error {
	if s.server == nil {
		return errm.New("server is disabled")
	}

	go func() {
		if err := s.server.Start(ctx); err != nil {
			s.log.Error("server stopped", "error", err)
		}
	}()

	if err := s.Refresh(ctx); err != nil {
		s.log.Error("initial refresh failed", "error", err)
	}

	sched := newScheduler(s.cfg.Schedule.Refresh, s.Refresh)
	if err := sched.Start(ctx); err != nil {
		return errm.Wrap(err, "failed to start scheduler")
	}
	ctx.Add(func(context.Context) error {
		sched.Stop()
		return nil
	})

	<-ctx.Done()
	return nil
}

// writeSnapshot replaces the file at path with the snapshot JSON
func writeSnapshot(path string, snapshot *report.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errm.Wrap(err, "failed to encode snapshot")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errm.Wrap(err, "failed to create output directory")
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errm.Wrap(err, "failed to write temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errm.Wrap(err, "failed to replace output file")
	}

	return nil
}
