package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RunConfig holds configuration for the run command.
type RunConfig struct {
	Plan           string
	Out            string
	PgDSN          string
	RunID          string
	WrappedNative  string
	RouterAddress  string
	FeeNumerator   uint64
	FeeDenominator uint64
	LogLevel       string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("ROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("out", "./data/trades.jsonl")
	v.SetDefault("router-address", "0x000000000000000000000000000000000000f00d")
	v.SetDefault("fee-numerator", uint64(997))
	v.SetDefault("fee-denominator", uint64(1000))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return RunConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return RunConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return RunConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := RunConfig{
		Plan:           v.GetString("plan"),
		Out:            v.GetString("out"),
		PgDSN:          v.GetString("pg-dsn"),
		RunID:          v.GetString("run-id"),
		WrappedNative:  v.GetString("wrapped-native"),
		RouterAddress:  v.GetString("router-address"),
		FeeNumerator:   v.GetUint64("fee-numerator"),
		FeeDenominator: v.GetUint64("fee-denominator"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
