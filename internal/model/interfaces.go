package model

import "context"

// CommitSource produces the ordered list of commits a pipeline run works on
type CommitSource interface {
	ListCommits(ctx context.Context) ([]Commit, error)
}

// RecordSource fetches the raw measurement of one benchmark set at one commit.
// It returns ErrRecordNotFound when the set produced no data for the commit.
type RecordSource interface {
	FetchRecord(ctx context.Context, sha, set string) (RawRecord, error)
}
