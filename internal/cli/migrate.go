// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taibuivan/lector/internal/platform/config"
	"github.com/taibuivan/lector/internal/platform/migration"
)

// MigrationState is the JSON output of migrate status.
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// NewMigrateCommand groups schema commands of the remote store.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the remote store schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "up",
		Short:         "Apply pending migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, rootOpts.logger(cmd))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "status",
		Short:         "Show the applied migration version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			version, dirty, err := migration.Status(cfg.DatabaseURL, cfg.MigrationPath, rootOpts.logger(cmd))
			if err != nil {
				return err
			}

			state := MigrationState{Version: version, Dirty: dirty}
			return rootOpts.output(cmd.OutOrStdout(), state, func(writer io.Writer) error {
				_, err := fmt.Fprintf(writer, "version %d (dirty: %t)\n", state.Version, state.Dirty)
				return err
			})
		},
	})

	return cmd
}
