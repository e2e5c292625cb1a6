package config

import (
	"time"

	"github.com/spf13/pflag"
)

// BackfillConfig holds the backfill command configuration.
type BackfillConfig struct {
	RPCURL          string
	ContractAddress string
	PGDSN           string
	CallTimeout     time.Duration
	StoreTimeout    time.Duration
	UID             uint64
	LogLevel        string
}

// LoadBackfill merges config file, environment variables, and flags into
// BackfillConfig.
func LoadBackfill(cfgFile string, flags *pflag.FlagSet) (BackfillConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return BackfillConfig{}, err
	}

	v.SetDefault("call-timeout", 30*time.Second)
	v.SetDefault("store-timeout", 10*time.Second)
	v.SetDefault("log-level", "info")

	cfg := BackfillConfig{
		RPCURL:          v.GetString("rpc"),
		ContractAddress: v.GetString("contract"),
		PGDSN:           v.GetString("pg-dsn"),
		CallTimeout:     v.GetDuration("call-timeout"),
		StoreTimeout:    v.GetDuration("store-timeout"),
		UID:             v.GetUint64("uid"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}
