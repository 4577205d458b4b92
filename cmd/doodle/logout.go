package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/causal/go-doodle/internal/config"
)

func newLogoutCmd(c config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the persisted session for the configured account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}

			if err := client.Disconnect(); err != nil {
				return err
			}

			fmt.Println("Session dropped.")
			return nil
		},
	}
}
