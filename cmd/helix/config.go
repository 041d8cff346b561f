package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the helix configuration file (~/.config/helix/config.yaml).
// All fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Model defaults
	Dimension         *int64   `yaml:"dimension"`
	KmerLength        *int64   `yaml:"kmer_length"`
	ContrastiveEpochs *int64   `yaml:"contrastive_epochs"`
	FinetuneEpochs    *int64   `yaml:"finetune_epochs"`
	BatchSize         *int64   `yaml:"batch_size"`
	Seed              *int64   `yaml:"seed"`
	Temperature       *float64 `yaml:"temperature"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`

	// Run registry
	RunsDB string `yaml:"runs_db"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "helix", "config.yaml")
}

// applyTrainConfig applies config file defaults to train command
// variables when the corresponding CLI flag was not explicitly set.
func applyTrainConfig(c *cli.Command, cfg Config,
	dim, kmerLength, contrastiveEpochs, finetuneEpochs, batchSize, seed *int64,
	temperature *float64, runsDB *string,
) {
	if cfg.Dimension != nil && !c.IsSet("dim") {
		*dim = *cfg.Dimension
	}
	if cfg.KmerLength != nil && !c.IsSet("kmer-length") && !c.IsSet("k") {
		*kmerLength = *cfg.KmerLength
	}
	if cfg.ContrastiveEpochs != nil && !c.IsSet("contrastive-epochs") {
		*contrastiveEpochs = *cfg.ContrastiveEpochs
	}
	if cfg.FinetuneEpochs != nil && !c.IsSet("finetune-epochs") {
		*finetuneEpochs = *cfg.FinetuneEpochs
	}
	if cfg.BatchSize != nil && !c.IsSet("batch-size") {
		*batchSize = *cfg.BatchSize
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
	if cfg.Temperature != nil && !c.IsSet("temperature") {
		*temperature = *cfg.Temperature
	}
	if cfg.RunsDB != "" && !c.IsSet("runs-db") {
		*runsDB = cfg.RunsDB
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or cannot be parsed.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
