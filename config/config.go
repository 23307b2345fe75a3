package config

import (
	"changeflare/common"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	Service  Service  `toml:"service" json:"service" yaml:"service"`
	Log      Log      `toml:"log" json:"log" yaml:"log"`
	Provider Provider `toml:"provider" json:"provider" yaml:"provider"`
	Sources  []Source `toml:"sources,omitempty" json:"sources,omitempty" yaml:"sources,omitempty"`
}

type Service struct {
	Name string `toml:"name" json:"name" yaml:"name"`
}

type Log struct {
	Level     *zapcore.Level `toml:"level" json:"level" yaml:"level"`
	Encoding  *string        `toml:"encoding" json:"encoding" yaml:"encoding"`
	InfoPath  *[]string      `toml:"info_path" json:"info_path" yaml:"info_path"`
	ErrorPath *[]string      `toml:"error_path" json:"error_path" yaml:"error_path"`
}

// Provider selects and configures the DNS backend. Zero fields are filled
// from the process environment by Resolve.
type Provider struct {
	Type         string          `toml:"type" json:"type" yaml:"type"`
	PollInterval common.Duration `toml:"poll_interval" json:"poll_interval" yaml:"poll_interval"`
	APIToken     string          `toml:"api_token" json:"api_token" yaml:"api_token"`
	ZoneID       string          `toml:"zone_id" json:"zone_id" yaml:"zone_id"`
	Config       map[string]any  `toml:"config,omitempty" json:"config,omitempty" yaml:"config,omitempty"`
}

// Source configures one external-address discovery source. Sources are
// tried in listed order each cycle.
type Source struct {
	Type   string         `toml:"type" json:"type" yaml:"type"`
	Config map[string]any `toml:"config,omitempty" json:"config,omitempty" yaml:"config,omitempty"`
}
