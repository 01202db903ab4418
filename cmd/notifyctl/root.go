// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/notifyclient"
)

type rootOptions struct {
	server   string
	token    string
	userID   string
	logLevel string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "notifyctl",
		Short:         "Read and follow Misdaqia notifications",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(logging.Config{
				Level:  opts.logLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
			if opts.token == "" {
				return errors.New("a token is required (--token or MISDAQIA_TOKEN)")
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("MISDAQIA_SERVER", "http://localhost:8080"), "server base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("MISDAQIA_TOKEN"), "bearer token")
	flags.StringVar(&opts.userID, "user", "", "user id to act for in REST commands (admins only, default is the token owner)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(
		newListCommand(opts),
		newReadCommand(opts),
		newReadAllCommand(opts),
		newTailCommand(opts),
	)
	return cmd
}

func (o *rootOptions) client(cfg notifyclient.Config) *notifyclient.Client {
	cfg.BaseURL = o.server
	cfg.Token = o.token
	cfg.UserID = o.userID
	return notifyclient.New(cfg)
}
