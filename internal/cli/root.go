// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cli implements lectorctl, the operator command line.

Every command wires the same components as the daemon through package app, so
an upload from the CLI is indistinguishable from one made in the reader.
*/
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/lector/internal/app"
	"github.com/taibuivan/lector/internal/platform/config"
	"github.com/taibuivan/lector/internal/platform/constants"
	"github.com/taibuivan/lector/internal/platform/validate"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Timeout time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for lectorctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "lectorctl",
		Short:   "Operate a Lector library",
		Long:    "Upload, download and remove books, and issue device tokens, against the same stores the sync daemon uses.",
		Version: constants.AppVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if (&validate.Validator{}).OneOf("format", opts.Format, ValidFormats...).HasErrors() {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "deadline for the whole command")

	cmd.AddCommand(NewLibraryCommand(opts))
	cmd.AddCommand(NewUploadCommand(opts))
	cmd.AddCommand(NewDownloadCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// logger writes to stderr so JSON output on stdout stays parseable.
func (opts *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// context bounds the command by --timeout.
func (opts *RootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), opts.Timeout)
}

// openApp loads the configuration and wires the application.
func (opts *RootOptions) openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, opts.logger(cmd))
}

// output prints value as indented JSON, or calls text for the text format.
func (opts *RootOptions) output(writer io.Writer, value any, text func(io.Writer) error) error {
	if opts.Format == "json" {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}
	return text(writer)
}
