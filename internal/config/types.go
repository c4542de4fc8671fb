package config

import (
	types "GridForge/pkg"
)

type Config struct {
	Database  DatabaseConfig        `mapstructure:"database" json:"database"`
	Compose   types.ComposeConfig   `mapstructure:"compose" json:"compose"`
	Discovery types.DiscoveryConfig `mapstructure:"discovery" json:"discovery"`
	Pipeline  types.PipelineConfig  `mapstructure:"pipeline" json:"pipeline"`
	Storage   types.StorageConfig   `mapstructure:"storage" json:"storage"`
	Temporal  types.TemporalConfig  `mapstructure:"temporal" json:"temporal"`
	Server    types.ServerConfig    `mapstructure:"server" json:"server"`
	Logging   types.LoggingConfig   `mapstructure:"logging" json:"logging"`
}

// DatabaseConfig selects the job store. An empty DSN keeps jobs in memory.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" json:"dsn"`
}
