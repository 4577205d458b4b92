package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/causal/go-doodle/internal/config"
	"github.com/causal/go-doodle/polls"
)

func newListCmd(c config.Config) *cobra.Command {
	var others bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List polls you created (or, with --others, polls you participate in)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}

			list, err := client.MyPolls(cmd.Context())
			if others {
				list, err = client.OtherPolls(cmd.Context())
			}
			if err != nil {
				return err
			}

			printPolls(list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&others, "others", false, "list polls you participate in without owning")
	return cmd
}

func printPolls(list []*polls.Poll) {
	if len(list) == 0 {
		fmt.Println("No polls found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATE\tPARTICIPANTS\tTITLE")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Type, p.State, p.ParticipantsCount, p.Title)
	}
	_ = w.Flush()
}
