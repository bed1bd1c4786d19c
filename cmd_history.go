package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently dispatched tasks from the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No dispatched tasks.")
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s  %-4s %-6s %-10s %s\n",
				r.DispatchedAt.Local().Format("2006-01-02 15:04"), r.Task.Priority.Label(), r.Task.Assignee, r.Task.Category, r.Task.Title)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of tasks to show")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the current review session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		sess.Reset()
		if err := sess.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
		return nil
	},
}
