package local

import (
	"context"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
)

var _ model.CommitSource = (*Provider)(nil)

const defaultLimit = 100

// Provider walks the history of a local git clone
type Provider struct {
	repo   *gogit.Repository
	config model.ProviderConfig
	logger logze.Logger
}

// New opens the repository at config.Path
func New(config model.ProviderConfig) (*Provider, error) {
	if config.Path == "" {
		return nil, errm.New("repository path is required")
	}

	repo, err := gogit.PlainOpen(config.Path)
	if err != nil {
		return nil, errm.Wrap(err, "failed to open repository")
	}
	config.Limit = lang.Check(config.Limit, defaultLimit)

	return &Provider{
		repo:   repo,
		config: config,
		logger: logze.With("provider", "local", "component", "provider", "path", config.Path),
	}, nil
}

// ListCommits returns up to Limit commits reachable from the branch tip, or HEAD when no branch is set
func (p *Provider) ListCommits(ctx context.Context) ([]model.Commit, error) {
	ref, err := p.resolve()
	if err != nil {
		return nil, err
	}

	iter, err := p.repo.Log(&gogit.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, errm.Wrap(err, "failed to read log")
	}
	defer iter.Close()

	var out []model.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(out) >= p.config.Limit {
			return storer.ErrStop
		}
		out = append(out, model.Commit{
			SHA:     c.Hash.String(),
			Date:    c.Author.When,
			Message: model.Subject(c.Message),
			Author:  c.Author.Name,
		})
		return nil
	})
	if err != nil {
		return nil, errm.Wrap(err, "failed to walk commits")
	}

	p.logger.Debug("listed commits", "ref", ref.Name().Short(), "count", len(out))

	return out, nil
}

func (p *Provider) resolve() (*plumbing.Reference, error) {
	if p.config.Branch == "" {
		ref, err := p.repo.Head()
		if err != nil {
			return nil, errm.Wrap(err, "failed to resolve HEAD")
		}
		return ref, nil
	}

	ref, err := p.repo.Reference(plumbing.NewBranchReferenceName(p.config.Branch), true)
	if err != nil {
		return nil, errm.Wrap(err, "failed to resolve branch")
	}
	return ref, nil
}
