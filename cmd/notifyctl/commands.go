// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmed2za/shaip-sub002/internal/models"
	"github.com/ahmed2za/shaip-sub002/internal/notifyclient"
	"github.com/ahmed2za/shaip-sub002/internal/realtime"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client(notifyclient.Config{PageSize: limit})
			p, err := c.FetchPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", notifyclient.DefaultPageSize, "rows per page")
	return cmd
}

func newReadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client(notifyclient.Config{}).MarkAsRead(cmd.Context(), args[0]); err != nil {
				if notifyclient.IsNotFound(err) {
					return fmt.Errorf("notification %s not found", args[0])
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "marked %s as read\n", args[0])
			return nil
		},
	}
}

func newReadAllCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client(notifyclient.Config{}).MarkAllAsRead(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "all notifications marked as read")
			return nil
		},
	}
}

func newTailCommand(opts *rootOptions) *cobra.Command {
	var presence bool
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the token owner's notifications as they are pushed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the socket always follows the token owner
			if opts.userID != "" {
				return errors.New("--user is not supported by tail; use a token of the user to follow")
			}
			out := cmd.OutOrStdout()
			cfg := notifyclient.Config{
				OnNotification: func(n *models.Notification) { printNotification(out, n) },
			}
			if presence {
				cfg.OnUserStatus = func(p realtime.UserStatusPayload) {
					_, _ = fmt.Fprintf(out, "%s  user %s is %s\n", time.Now().Format(time.TimeOnly), p.UserID, p.Status)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := opts.client(cfg)
			if err := c.Refresh(ctx); err != nil {
				return err
			}
			s := c.Snapshot()
			_, _ = fmt.Fprintf(out, "%d unread, following (ctrl-c to stop)\n", s.UnreadCount)

			_ = c.Run(ctx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&presence, "presence", false, "also print online/offline events")
	return cmd
}

func printPage(w io.Writer, p *models.NotificationPage) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTYPE\tREAD\tCREATED\tMESSAGE")
	for _, n := range p.Notifications {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", n.ID, n.Type, n.Read, n.CreatedAt.Format(time.RFC3339), n.Message)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "page %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
}

func printNotification(w io.Writer, n *models.Notification) {
	line := fmt.Sprintf("%s  [%s] %s", n.CreatedAt.Format(time.TimeOnly), n.Type, n.Message)
	if n.Link != "" {
		line += "  " + n.Link
	}
	_, _ = fmt.Fprintln(w, line)
}
