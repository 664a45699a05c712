package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/leaguesync/go/internal/session"
	"github.com/spf13/cobra"
)

// NewTokenCommand signs a session token, for local development and scripts
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a session token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.config.Session.Secret == "" {
				return errors.New("SESSION_SECRET is required")
			}
			if ttl == 0 {
				ttl = opts.config.Session.TTL
			}

			// the lifecycle is never touched when only issuing
			manager := session.NewManager(nil, []byte(opts.config.Session.Secret), nil)
			token, err := manager.Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to the configured session ttl)")
	return cmd
}
