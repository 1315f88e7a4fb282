// Package source fetches raw benchmark records from where the benchmark tooling stored them.
package source

import (
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/perftrend/internal/model"
)

// New creates a record source based on the configuration
func New(cfg Config) (model.RecordSource, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, erro.Wrap(err, "validate config")
	}

	var (
		src model.RecordSource
		err error
	)
	switch cfg.Type {
	case HTTP:
		src, err = NewHTTPSource(cfg)
	case Dir:
		src, err = NewDirSource(cfg.Dir)
	default:
		return nil, erro.New("unsupported source type: %s", cfg.Type)
	}
	if err != nil {
		return nil, erro.Wrap(err, "failed to create record source")
	}

	return src, nil
}

func recordPath(sha, set string) string {
	return sha + "/" + set + ".json"
}
