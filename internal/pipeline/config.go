package pipeline

import (
	"slices"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const defaultWorkers = 32

// DefaultSets are the benchmark sets published by the performance data repository
var DefaultSets = []string{
	"string",
	"storagemapvec",
	"storage_string",
	"nft",
	"merkle_proof",
	"fixed_point",
	"signed_integers",
	"reentrancy",
	"ownership",
}

type Config struct {
	Sets    []string `yaml:"sets" env:"PIPELINE_SETS" env-separator:","`
	Workers int      `yaml:"workers" env:"PIPELINE_WORKERS"`
	Verbose bool     `yaml:"verbose" env:"PIPELINE_VERBOSE"`
}

func (c *Config) PrepareAndValidate() error {
	if len(c.Sets) == 0 {
		c.Sets = slices.Clone(DefaultSets)
	}
	c.Workers = lang.Check(c.Workers, defaultWorkers)
	if c.Workers < 0 {
		return errm.Errorf("invalid workers: %d", c.Workers)
	}

	seen := make(map[string]struct{}, len(c.Sets))
	for _, set := range c.Sets {
		if set == "" {
			return errm.New("empty set name")
		}
		if _, ok := seen[set]; ok {
			return errm.Errorf("duplicate set: %s", set)
		}
		seen[set] = struct{}{}
	}

	return nil
}
