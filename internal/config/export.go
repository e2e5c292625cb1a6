package config

import "github.com/spf13/pflag"

// ExportConfig holds the export command configuration.
type ExportConfig struct {
	PGDSN    string
	Out      string
	LogLevel string
}

// LoadExport merges config file, environment variables, and flags into
// ExportConfig.
func LoadExport(cfgFile string, flags *pflag.FlagSet) (ExportConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ExportConfig{}, err
	}

	v.SetDefault("out", "./data/archive-export.jsonl")
	v.SetDefault("log-level", "info")

	cfg := ExportConfig{
		PGDSN:    v.GetString("pg-dsn"),
		Out:      v.GetString("out"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}
