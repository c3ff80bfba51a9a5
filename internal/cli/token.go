// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/lector/internal/platform/config"
	"github.com/taibuivan/lector/internal/platform/constants"
	"github.com/taibuivan/lector/internal/platform/sec"
)

// TokenResult is the JSON output of the token command.
type TokenResult struct {
	DeviceID  string    `json:"device_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenCommand issues a device token signed with JWT_PRIVATE_KEY_PATH.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name       string
		timeToLive time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <device-id>",
		Short: "Issue a device token",
		Long: `Issue a bearer token for a reader device.

Requires JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH. The daemon only needs
the public key to verify tokens.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return fmt.Errorf("device tokens are disabled: JWT_PUBLIC_KEY_PATH is not set")
			}

			tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
			if err != nil {
				return err
			}
			return runToken(cmd.OutOrStdout(), rootOpts, tokens, args[0], name, timeToLive)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human readable device name")
	cmd.Flags().DurationVar(&timeToLive, "ttl", constants.DeviceTokenTTL, "token lifetime")
	return cmd
}

func runToken(writer io.Writer, opts *RootOptions, tokens *sec.TokenService, deviceID, name string, timeToLive time.Duration) error {
	if name == "" {
		name = deviceID
	}
	token, err := tokens.GenerateDeviceToken(deviceID, name, timeToLive)
	if err != nil {
		return err
	}

	result := TokenResult{DeviceID: deviceID, Token: token, ExpiresAt: time.Now().Add(timeToLive).UTC()}
	return opts.output(writer, result, func(writer io.Writer) error {
		_, err := fmt.Fprintln(writer, token)
		return err
	})
}
