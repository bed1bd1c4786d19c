package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/config"
	"github.com/harrisonrobin/taskdispatch/pkg/logging"
)

var (
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
	appDir  string
)

var rootCmd = &cobra.Command{
	Use:   "taskdispatch",
	Short: "Extract tasks from messages and documents and dispatch them to their owners",
	Long: `taskdispatch turns free-form input (text, a manual task, a link, files,
recordings) into structured tasks, routes each one to a department and
liaison, and after review persists, mirrors and notifies.

Typical session:
  taskdispatch analyze --text "老闆交代：下週一前完成報告"
  taskdispatch drafts show
  taskdispatch dispatch
  taskdispatch notify`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = logging.New(verbose); err != nil {
			return err
		}
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if appDir, err = config.AppDir(); err != nil {
			return fmt.Errorf("could not find configuration directory: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(
		setupCmd,
		authCmd,
		analyzeCmd,
		draftsCmd,
		dispatchCmd,
		notifyCmd,
		rosterCmd,
		historyCmd,
		clearCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
