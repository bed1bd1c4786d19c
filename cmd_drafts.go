package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskdispatch/pkg/session"
	"github.com/harrisonrobin/taskdispatch/pkg/summary"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Review the tasks of the current session",
}

var draftsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the tasks, summary and dispatch status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sess.Tasks) == 0 {
			fmt.Fprintln(out, "No session. Run `taskdispatch analyze` first.")
			return nil
		}
		fmt.Fprintf(out, "Session from %s (%s analyzer, reference date %s)\n\n", sess.UpdatedAt.Local().Format("2006-01-02 15:04"), sess.Mode, sess.Reference)
		printTasks(out, sess.Tasks)
		if !summary.IsEmpty(sess.Summary) {
			fmt.Fprintf(out, "\n摘要\n%s\n", sess.Summary)
		}
		if sess.Status != nil {
			fmt.Fprintln(out, "\nStatus:")
			printStatus(out, sess.Status)
		}
		return nil
	},
}

var draftsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the tasks as editable JSON drafts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		if len(sess.Tasks) == 0 {
			return session.ErrNoTasks
		}
		var w io.Writer = cmd.OutOrStdout()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return sess.ExportDrafts(w)
	},
}

var draftsImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the tasks with edited drafts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		if err := sess.ImportDrafts(r); err != nil {
			return err
		}
		if err := sess.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s).\n", len(sess.Tasks))
		return nil
	},
}

func init() {
	draftsCmd.AddCommand(draftsShowCmd, draftsExportCmd, draftsImportCmd)
}
