package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
	"github.com/dd0wney/cluso-bayesnet/pkg/graphql"
	"github.com/dd0wney/cluso-bayesnet/pkg/validation"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings shared by every command. Values come from, in
// increasing priority: defaults, the --config file, BNMODEL_* environment
// variables, and command-line flags.
type Config struct {
	ModelID        string        `mapstructure:"model_id"`
	LogLevel       string        `mapstructure:"log_level"`
	SlowEngineCall time.Duration `mapstructure:"slow_engine_call"`
	Advisory       bool          `mapstructure:"advisory"`
	Strict         bool          `mapstructure:"strict"`
	MaxQueryDepth  int           `mapstructure:"max_query_depth"`
	Listen         string        `mapstructure:"listen"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

func (c Config) Validate() error {
	return validation.NewConfigValidator("bnmodel").
		When(c.ModelID != "", func(cv *validation.ConfigValidator) {
			cv.Custom("model_id", func() error { return validation.ValidateIdentifier(c.ModelID) })
		}).
		OneOf("log_level", c.LogLevel, logLevels).
		RangeDuration("slow_engine_call", c.SlowEngineCall, 0, time.Minute).
		RangeInt("max_query_depth", c.MaxQueryDepth, 1, 64).
		Required("listen", c.Listen).
		Validate()
}

// loadConfig reads path (optional) and the environment, then lets any flag in
// flags that was set explicitly override both.
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("model_id", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("slow_engine_call", bayesnet.DefaultSlowEngineCall)
	v.SetDefault("advisory", false)
	v.SetDefault("strict", false)
	v.SetDefault("max_query_depth", graphql.DefaultMaxDepth)
	v.SetDefault("listen", "127.0.0.1:8089")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("BNMODEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"log_level":       "log-level",
		"model_id":        "model-id",
		"advisory":        "advisory",
		"strict":          "strict",
		"max_query_depth": "max-depth",
		"listen":          "listen",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, err
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	return c, c.Validate()
}
