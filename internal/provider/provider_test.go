package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/maxbolgarin/perftrend/internal/model"
)

type staticSource struct {
	commits []model.Commit
	err     error
}

func (s staticSource) ListCommits(context.Context) ([]model.Commit, error) {
	return s.commits, s.err
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestFetcher_ListCommits(t *testing.T) {
	src := staticSource{commits: []model.Commit{
		{SHA: "c3", Date: day(3)},
		{SHA: "c2b", Date: day(2)},
		{SHA: "c2a", Date: day(2)},
		{SHA: "c3", Date: day(3)},
		{SHA: "", Date: day(1)},
		{SHA: "c1", Date: day(1)},
	}}

	commits, err := NewFetcher(src).ListCommits(context.Background())
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}

	var got []string
	for _, c := range commits {
		got = append(got, c.SHA)
	}
	want := []string{"c1", "c2b", "c2a", "c3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFetcher_ListCommitsError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewFetcher(staticSource{err: boom}).ListCommits(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("ListCommits() error = %v, want %v", err, boom)
	}
}

func TestConfig_PrepareAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  Config{},
			want: Config{Type: GitHub, Project: "FuelLabs/sway", Limit: 100},
		},
		{
			name: "gitlab keeps project",
			cfg:  Config{Type: GitLab, Project: "group/project", Limit: 10},
			want: Config{Type: GitLab, Project: "group/project", Limit: 10},
		},
		{
			name:    "gitlab requires project",
			cfg:     Config{Type: GitLab},
			wantErr: true,
		},
		{
			name:    "local requires path",
			cfg:     Config{Type: Local},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     Config{Type: "svn"},
			wantErr: true,
		},
		{
			name:    "negative limit",
			cfg:     Config{Limit: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.PrepareAndValidate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrepareAndValidate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, tt.cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	if _, err := NewProvider(Config{Type: Local}); err == nil {
		t.Error("NewProvider() expected error")
	}
}
