package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/causal/go-doodle/internal/config"
)

func newWhoamiCmd(c config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the current session belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}

			info, err := client.UserInfo(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(info))
			for k := range info {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s: %v\n", k, info[k])
			}
			return nil
		},
	}
}
