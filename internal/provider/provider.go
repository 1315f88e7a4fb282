package provider

import (
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/perftrend/internal/model"
	"github.com/maxbolgarin/perftrend/internal/provider/bitbucket"
	"github.com/maxbolgarin/perftrend/internal/provider/github"
	"github.com/maxbolgarin/perftrend/internal/provider/gitlab"
	"github.com/maxbolgarin/perftrend/internal/provider/local"
)

// NewProvider creates a new commit history provider based on the configuration
func NewProvider(cfg Config) (model.CommitSource, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, erro.Wrap(err, "validate config")
	}

	cfgForProvider := model.ProviderConfig{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Project: cfg.Project,
		Branch:  cfg.Branch,
		Path:    cfg.Path,
		Limit:   cfg.Limit,
	}

	var provider model.CommitSource
	var err error

	switch cfg.Type {
	case GitLab:
		provider, err = gitlab.New(cfgForProvider)
	case GitHub:
		provider, err = github.New(cfgForProvider)
	case Bitbucket:
		provider, err = bitbucket.New(cfgForProvider)
	case Local:
		provider, err = local.New(cfgForProvider)
	default:
		return nil, erro.New("unsupported provider type: %s", cfg.Type)
	}
	if err != nil {
		return nil, erro.Wrap(err, "failed to create provider")
	}

	return provider, nil
}
