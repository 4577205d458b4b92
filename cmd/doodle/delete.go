package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/causal/go-doodle/internal/config"
	"github.com/causal/go-doodle/polls"
)

func newDeleteCmd(c config.Config) *cobra.Command {
	var adminKey string

	cmd := &cobra.Command{
		Use:   "delete <poll-id>",
		Short: "Delete a poll you administer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}

			poll := &polls.Poll{ID: args[0], AdminKey: adminKey}
			if err := client.DeletePoll(cmd.Context(), poll); err != nil {
				return err
			}

			fmt.Printf("Deleted poll %s\n", poll.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&adminKey, "admin-key", "", "admin key of the poll")
	_ = cmd.MarkFlagRequired("admin-key")
	return cmd
}
