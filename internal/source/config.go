package source

import (
	"slices"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const (
	defaultBaseURL   = "https://raw.githubusercontent.com/FuelLabs/sway-performance-data/master"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "perftrend/0.1.0 (https://github.com/maxbolgarin/perftrend)"
)

type SourceType string

// Supported record source types
const (
	HTTP SourceType = "http"
	Dir  SourceType = "dir"
)

var supportedSourceTypes = []SourceType{HTTP, Dir}

// Config represents the raw record storage configuration.
// Records are addressed as <base>/<commit sha>/<set name>.json.
type Config struct {
	Type      SourceType    `yaml:"type" env:"SOURCE_TYPE"`
	BaseURL   string        `yaml:"base_url" env:"SOURCE_BASE_URL"`
	Dir       string        `yaml:"dir" env:"SOURCE_DIR"`
	Timeout   time.Duration `yaml:"timeout" env:"SOURCE_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" env:"SOURCE_USER_AGENT"`
}

func (c *Config) PrepareAndValidate() error {
	c.Type = lang.Check(c.Type, HTTP)
	if !slices.Contains(supportedSourceTypes, c.Type) {
		return errm.Errorf("invalid source type: %s", c.Type)
	}

	c.BaseURL = lang.Check(c.BaseURL, defaultBaseURL)
	c.Timeout = lang.Check(c.Timeout, defaultTimeout)
	c.UserAgent = lang.Check(c.UserAgent, defaultUserAgent)

	if c.Type == Dir && c.Dir == "" {
		return errm.New("dir is required for dir source")
	}

	return nil
}
