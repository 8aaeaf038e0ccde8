package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "VERTAAL"

// Flags never read from a config file or the environment.
var unboundFlags = map[string]bool{
	"config":  true,
	"help":    true,
	"version": true,
	"yes":     true,
}

// applyConfig fills flags the user did not set from an optional config file
// and VERTAAL_* variables. Explicit flags always win.
func applyConfig(cmd *cobra.Command, configPath string) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if firstErr != nil || f.Changed || unboundFlags[f.Name] {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(v.GetStringSlice(f.Name)); err != nil {
				firstErr = fmt.Errorf("invalid %s in config: %w", f.Name, err)
			}
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil {
			firstErr = fmt.Errorf("invalid %s in config: %w", f.Name, err)
		}
	})
	return firstErr
}
