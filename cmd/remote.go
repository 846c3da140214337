package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/client"
	"github.com/theirongolddev/spendlens/internal/config"
)

// remote returns a client for --server, or nil when analysis runs locally.
// The config is loaded either way for defaults.
func remote() (*client.Client, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil || flagServer == "" {
		return nil, cfg, err
	}
	return client.New(flagServer, flagUser), cfg, nil
}

func remoteUser(cfg config.Config) string {
	if flagUser != "" {
		return flagUser
	}
	return cfg.General.DefaultUser
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
