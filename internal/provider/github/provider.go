package github

import (
	"context"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
	"golang.org/x/oauth2"
)

var _ model.CommitSource = (*Provider)(nil)

const (
	defaultBaseURL = "https://github.com"
	defaultLimit   = 100
	maxPerPage     = 100
)

// Provider lists commit history of a GitHub repository
type Provider struct {
	client *github.Client
	config model.ProviderConfig
	owner  string
	repo   string
	logger logze.Logger
}

// New creates a new GitHub provider, the token is optional for public repositories
func New(config model.ProviderConfig) (*Provider, error) {
	owner, repo, ok := strings.Cut(config.Project, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, errm.New("invalid GitHub project format, expected 'owner/repo'")
	}
	log := logze.With("provider", "github", "component", "provider")

	config.Limit = lang.Check(config.Limit, defaultLimit)

	client := github.NewClient(nil)
	if config.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: config.Token},
		)
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}

	// GitHub Enterprise or a test server
	if config.BaseURL != "" && config.BaseURL != defaultBaseURL {
		var err error
		client, err = client.WithEnterpriseURLs(config.BaseURL, config.BaseURL)
		if err != nil {
			return nil, errm.Wrap(err, "failed to create GitHub Enterprise client")
		}
	}

	return &Provider{
		client: client,
		config: config,
		owner:  owner,
		repo:   repo,
		logger: log,
	}, nil
}

// ListCommits returns up to Limit most recent commits of the configured branch
func (p *Provider) ListCommits(ctx context.Context) ([]model.Commit, error) {
	opts := &github.CommitsListOptions{
		SHA:         p.config.Branch,
		ListOptions: github.ListOptions{PerPage: min(p.config.Limit, maxPerPage)},
	}

	var out []model.Commit
	for len(out) < p.config.Limit {
		commits, resp, err := p.client.Repositories.ListCommits(ctx, p.owner, p.repo, opts)
		if err != nil {
			return nil, errm.Wrap(err, "failed to list commits")
		}

		for _, c := range commits {
			if len(out) >= p.config.Limit {
				break
			}
			out = append(out, convertCommit(c))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	p.logger.Debug("listed commits", "project", p.config.Project, "branch", p.config.Branch, "count", len(out))

	return out, nil
}

func convertCommit(c *github.RepositoryCommit) model.Commit {
	commit := c.GetCommit()
	author := commit.GetAuthor()
	return model.Commit{
		SHA:     c.GetSHA(),
		Date:    author.GetDate().Time,
		Message: model.Subject(commit.GetMessage()),
		Author:  author.GetName(),
		URL:     c.GetHTMLURL(),
	}
}
