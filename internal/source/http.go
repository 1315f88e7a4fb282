package source

import (
	"context"
	"net/http"
	"strings"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
)

var _ model.RecordSource = (*HTTPSource)(nil)

// HTTPSource reads records from a static file host such as raw.githubusercontent.com
type HTTPSource struct {
	cli *cliex.HTTP
	log logze.Logger
}

// NewHTTPSource creates an HTTP record source
func NewHTTPSource(cfg Config) (*HTTPSource, error) {
	log := logze.With("source", "http", "component", "source")

	cli, err := cliex.New(cliex.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")), cliex.WithLogger(log))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create HTTP client")
	}
	cli.C().SetTimeout(cfg.Timeout)
	cli.C().SetHeader("User-Agent", cfg.UserAgent)

	return &HTTPSource{
		cli: cli,
		log: log,
	}, nil
}

// FetchRecord downloads <sha>/<set>.json
func (s *HTTPSource) FetchRecord(ctx context.Context, sha, set string) (model.RawRecord, error) {
	resp, err := s.cli.C().R().SetContext(ctx).Get("/" + recordPath(sha, set))
	if resp != nil && resp.StatusCode() == http.StatusNotFound {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, errm.Wrap(err, "failed to request record")
	}
	if resp.IsError() {
		return nil, errm.Errorf("unexpected status %d for %s", resp.StatusCode(), recordPath(sha, set))
	}

	raw, err := model.DecodeRawRecord(resp.Body())
	if err != nil {
		return nil, errm.Wrap(err, "failed to decode record")
	}

	return raw, nil
}
