package gitlab

import (
	"context"
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	defaultBaseURL = "https://gitlab.com"
	defaultLimit   = 100
	maxPerPage     = 100
)

var _ model.CommitSource = (*Provider)(nil)

// Provider lists commit history of a GitLab project
type Provider struct {
	client *gitlab.Client
	config model.ProviderConfig
	logger logze.Logger
}

// New creates a new GitLab provider
func New(config model.ProviderConfig) (*Provider, error) {
	if config.Project == "" {
		return nil, errm.New("GitLab project is required")
	}
	logger := logze.With("provider", "gitlab", "component", "provider")

	config.Limit = lang.Check(config.Limit, defaultLimit)
	baseURL := strings.TrimSuffix(lang.Check(config.BaseURL, defaultBaseURL), "/")

	client, err := gitlab.NewClient(config.Token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create GitLab client")
	}

	return &Provider{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// ListCommits returns up to Limit most recent commits of the configured ref
func (p *Provider) ListCommits(ctx context.Context) ([]model.Commit, error) {
	opts := &gitlab.ListCommitsOptions{
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: min(p.config.Limit, maxPerPage),
		},
	}
	if p.config.Branch != "" {
		opts.RefName = &p.config.Branch
	}

	var out []model.Commit
	for len(out) < p.config.Limit {
		commits, resp, err := p.client.Commits.ListCommits(p.config.Project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, errm.Wrap(err, "failed to list commits")
		}

		for _, c := range commits {
			if len(out) >= p.config.Limit {
				break
			}
			out = append(out, model.Commit{
				SHA:     c.ID,
				Date:    lang.Deref(c.AuthoredDate),
				Message: model.Subject(c.Message),
				Author:  c.AuthorName,
				URL:     c.WebURL,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	p.logger.Debug("listed commits", "project", p.config.Project, "ref", p.config.Branch, "count", len(out))

	return out, nil
}
