package config

import (
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/perftrend/internal/pipeline"
	"github.com/maxbolgarin/perftrend/internal/provider"
	"github.com/maxbolgarin/perftrend/internal/server"
	"github.com/maxbolgarin/perftrend/internal/source"
	"github.com/robfig/cron/v3"
)

const defaultRefresh = "@every 30m"

// Config represents the main application configuration
type Config struct {
	Provider provider.Config `yaml:"provider"`
	Source   source.Config   `yaml:"source"`
	Pipeline pipeline.Config `yaml:"pipeline"`
	Server   server.Config   `yaml:"server"`
	Schedule ScheduleConfig  `yaml:"schedule"`
	Output   OutputConfig    `yaml:"output"`
}

// ScheduleConfig controls periodic snapshot refresh while serving
type ScheduleConfig struct {
	Refresh string `yaml:"refresh" env:"SCHEDULE_REFRESH"` // cron spec or descriptor like "@every 30m"
}

// OutputConfig controls the JSON snapshot file written after each run
type OutputConfig struct {
	Path string `yaml:"path" env:"OUTPUT_PATH"`
}

// PrepareAndValidate fills defaults of the top-level sections. Component sections
// are validated by the components themselves.
func (c *Config) PrepareAndValidate() error {
	c.Schedule.Refresh = lang.Check(c.Schedule.Refresh, defaultRefresh)
	if _, err := cron.ParseStandard(c.Schedule.Refresh); err != nil {
		return errm.Wrap(err, "invalid refresh schedule")
	}
	return nil
}
