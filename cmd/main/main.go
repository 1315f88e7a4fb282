package main

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/app"
)

var (
	Version, Branch, Commit, BuildDate string
)

var (
	configPath = kingpin.Flag("config", "path to config file").Short('c').String()
	once       = kingpin.Flag("once", "run the pipeline once and exit").Bool()
	outputPath = kingpin.Flag("output", "write the snapshot JSON to this file").Short('o').String()
	verbose    = kingpin.Flag("verbose", "enable debug logs").Short('v').Bool()
)

func main() {
	kingpin.Version(Version)
	kingpin.Parse()

	var err error
	ctx := contem.New(contem.WithLogger(logze.DefaultPtr()), contem.Exit(&err))
	defer ctx.Shutdown()
	err = run(ctx)
	if err != nil {
		logze.DefaultPtr().Error("cannot run", "error", err)
	}
}

func run(ctx contem.Context) error {
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return erro.Wrap(err, "load config")
	}
	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}
	if *verbose {
		cfg.Pipeline.Verbose = true
	}

	level := logze.LevelInfo
	if cfg.Pipeline.Verbose {
		level = logze.LevelDebug
	}
	logze.Init(logze.C().WithConsole().WithLevel(level))

	logze.With("component", "main").Info("starting perftrend", "version", Version, "commit", Commit, "build_date", BuildDate)

	if *once {
		cfg.Server.Enabled = false
	}

	service, err := app.New(ctx, cfg)
	if err != nil {
		return erro.Wrap(err, "new service")
	}

	if !cfg.Server.Enabled {
		if err := service.Refresh(ctx); err != nil {
			return erro.Wrap(err, "refresh")
		}
		return nil
	}

	if err := service.Serve(ctx); err != nil {
		return erro.Wrap(err, "serve")
	}

	return nil
}
