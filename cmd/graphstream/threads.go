package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newThreadsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Manage conversation threads",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Create an empty thread and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			th, err := a.client.CreateThread(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), th.ThreadID)
			return nil
		},
	})
	return cmd
}
