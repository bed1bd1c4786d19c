package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/google"
	"github.com/harrisonrobin/taskdispatch/pkg/session"
	"github.com/harrisonrobin/taskdispatch/pkg/workflow"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Persist the reviewed tasks, mirror them and write the summary document",
	Args:  cobra.NoArgs,
	RunE:  runDispatch,
}

func runDispatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sess, err := openSession()
	if err != nil {
		return err
	}
	if len(sess.Tasks) == 0 {
		return session.ErrNoTasks
	}
	if sess.Dispatched {
		return errors.New("this session was already dispatched; run `taskdispatch notify` or `taskdispatch clear`")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	bus := workflow.NewBus()
	defer bus.Subscribe(statusPrinter(out))()
	o := &workflow.Orchestrator{Store: st, Bus: bus, Logger: logger}

	if cfg.Sheets.SpreadsheetID != "" || cfg.Docs.Enabled {
		srv, err := googleServices(ctx)
		if err != nil {
			return err
		}
		if cfg.Sheets.SpreadsheetID != "" {
			mirror, err := google.NewSheetsMirror(srv.Sheets, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range, logger)
			if err != nil {
				return err
			}
			o.Mirror = mirror
		}
		if cfg.Docs.Enabled {
			o.Documents = google.NewDocsWriter(srv.Docs, logger)
		}
	}

	status, err := o.Dispatch(ctx, sess.Tasks, sess.Summary)
	if err != nil {
		return err
	}
	sess.RecordDispatch(status)
	if err := sess.Save(); err != nil {
		logger.Warn("could not save session", zap.Error(err))
	}

	if !status.Completed() {
		fmt.Fprintln(out, "\nDispatch did not complete:")
		printStatus(out, status)
		return errors.New("dispatch failed")
	}
	fmt.Fprintln(out, "\nDispatch complete. Run `taskdispatch notify` to notify the assignees.")
	return nil
}
