package provider

import (
	"slices"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const (
	defaultProject = "FuelLabs/sway"
	defaultLimit   = 100
)

type ProviderType string

// SupportedProviderTypes defines the supported commit history providers
const (
	GitLab    ProviderType = "gitlab"
	GitHub    ProviderType = "github"
	Bitbucket ProviderType = "bitbucket"
	Local     ProviderType = "local"
)

var supportedProviderTypes = []ProviderType{GitLab, GitHub, Bitbucket, Local}

// Config represents commit history provider configuration
type Config struct {
	Type    ProviderType `yaml:"type" env:"PROVIDER_TYPE"`
	BaseURL string       `yaml:"base_url" env:"PROVIDER_BASE_URL"`
	Token   string       `yaml:"token" env:"PROVIDER_TOKEN"`
	Project string       `yaml:"project" env:"PROVIDER_PROJECT"` // owner/repo, GitLab project path or id, workspace/repo_slug
	Branch  string       `yaml:"branch" env:"PROVIDER_BRANCH"`   // empty means the default branch
	Path    string       `yaml:"path" env:"PROVIDER_PATH"`       // local clone for the local provider
	Limit   int          `yaml:"limit" env:"PROVIDER_LIMIT"`
}

func (c *Config) PrepareAndValidate() error {
	c.Type = lang.Check(c.Type, GitHub)
	if !slices.Contains(supportedProviderTypes, c.Type) {
		return errm.Errorf("invalid provider type: %s", c.Type)
	}

	c.Limit = lang.Check(c.Limit, defaultLimit)
	if c.Limit < 0 {
		return errm.Errorf("invalid limit: %d", c.Limit)
	}

	switch c.Type {
	case Local:
		if c.Path == "" {
			return errm.New("path is required for local provider")
		}
	case GitHub:
		c.Project = lang.Check(c.Project, defaultProject)
	default:
		if c.Project == "" {
			return errm.New("project is required")
		}
	}

	return nil
}
