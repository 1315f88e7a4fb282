package provider

import (
	"cmp"
	"context"
	"slices"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
)

var _ model.CommitSource = (*Fetcher)(nil)

// Fetcher turns a provider's commit listing into the sequence a pipeline run uses:
// deduplicated by SHA and ordered oldest first, ties keeping the provider order.
type Fetcher struct {
	provider model.CommitSource
	log      logze.Logger
}

// NewFetcher creates a new commit fetcher instance
func NewFetcher(provider model.CommitSource) *Fetcher {
	return &Fetcher{
		provider: provider,
		log:      logze.With("component", "fetcher"),
	}
}

// ListCommits retrieves commits in chronological order
func (f *Fetcher) ListCommits(ctx context.Context) ([]model.Commit, error) {
	commits, err := f.provider.ListCommits(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "failed to list commits")
	}

	seen := make(map[string]struct{}, len(commits))
	out := make([]model.Commit, 0, len(commits))
	for _, c := range commits {
		if c.SHA == "" {
			f.log.Warn("skipping commit without sha", "message", c.Message)
			continue
		}
		if _, ok := seen[c.SHA]; ok {
			continue
		}
		seen[c.SHA] = struct{}{}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b model.Commit) int {
		return cmp.Compare(a.Date.UnixNano(), b.Date.UnixNano())
	})

	f.log.Debug("listed commits", "count", len(out))

	return out, nil
}
