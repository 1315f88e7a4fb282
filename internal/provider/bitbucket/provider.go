package bitbucket

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
)

var _ model.CommitSource = (*Provider)(nil)

const (
	defaultBaseURL = "https://api.bitbucket.org/2.0"
	defaultLimit   = 100
	maxPageLen     = 100
)

// Provider lists commit history of a Bitbucket repository
type Provider struct {
	config    model.ProviderConfig
	baseURL   string
	workspace string
	repoSlug  string
	logger    logze.Logger
	client    *cliex.HTTP
}

// New creates a new Bitbucket provider
func New(config model.ProviderConfig) (*Provider, error) {
	workspace, repoSlug, ok := strings.Cut(config.Project, "/")
	if !ok || workspace == "" || repoSlug == "" || strings.Contains(repoSlug, "/") {
		return nil, errm.New("invalid Bitbucket project format, expected 'workspace/repo_slug'")
	}
	log := logze.With("provider", "bitbucket", "component", "provider")

	config.Limit = lang.Check(config.Limit, defaultLimit)
	baseURL := strings.TrimSuffix(lang.Check(config.BaseURL, defaultBaseURL), "/")

	cli, err := cliex.New(cliex.WithBaseURL(baseURL), cliex.WithLogger(log))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create Bitbucket client")
	}
	if config.Token != "" {
		cli.C().SetAuthToken(config.Token)
	}

	return &Provider{
		client:    cli,
		config:    config,
		baseURL:   baseURL,
		workspace: workspace,
		repoSlug:  repoSlug,
		logger:    log,
	}, nil
}

// ListCommits returns up to Limit most recent commits, following the "next" links
func (p *Provider) ListCommits(ctx context.Context) ([]model.Commit, error) {
	apiURL := fmt.Sprintf("/repositories/%s/%s/commits", p.workspace, p.repoSlug)
	if p.config.Branch != "" {
		apiURL += "/" + p.config.Branch
	}
	apiURL += fmt.Sprintf("?pagelen=%d", min(p.config.Limit, maxPageLen))

	var out []model.Commit
	for apiURL != "" && len(out) < p.config.Limit {
		var page bitbucketCommitPage
		if _, err := p.client.Get(ctx, apiURL, &page); err != nil {
			return nil, errm.Wrap(err, "failed to list commits")
		}

		for _, c := range page.Values {
			if len(out) >= p.config.Limit {
				break
			}
			out = append(out, model.Commit{
				SHA:     c.Hash,
				Date:    c.Date,
				Message: model.Subject(c.Message),
				Author:  c.authorName(),
				URL:     c.Links.HTML.Href,
			})
		}

		// next links are absolute, requests are made relative to the base URL
		apiURL = strings.TrimPrefix(page.Next, p.baseURL)
	}

	p.logger.Debug("listed commits", "project", p.config.Project, "branch", p.config.Branch, "count", len(out))

	return out, nil
}
