package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/dispatch"
	"github.com/harrisonrobin/taskdispatch/pkg/google"
	"github.com/harrisonrobin/taskdispatch/pkg/line"
	"github.com/harrisonrobin/taskdispatch/pkg/workflow"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notify every assignee of the dispatched tasks",
	Args:  cobra.NoArgs,
	RunE:  runNotify,
}

func runNotify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sess, err := openSession()
	if err != nil {
		return err
	}
	if !sess.Dispatched || sess.Status == nil {
		return errors.New("notification is available only after a completed dispatch")
	}

	r, err := openRoster()
	if err != nil {
		return err
	}
	grouping, err := dispatch.Group(sess.Tasks, r.List(), logger)
	if errors.Is(err, dispatch.ErrMissingContactInfo) {
		return fmt.Errorf("%w; add a channel with `taskdispatch roster set`", err)
	}
	if err != nil {
		return err
	}
	for _, title := range grouping.Unresolved {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: the assignee of %q is not in the roster; it is not notified\n", title)
	}

	bus := workflow.NewBus()
	defer bus.Subscribe(statusPrinter(out))()
	o := &workflow.Orchestrator{
		Messenger: line.NewNotifier(cfg.Line.Endpoint, nil, logger),
		Bus:       bus,
		Logger:    logger,
	}
	if needsEmail(grouping) {
		srv, err := googleServices(ctx)
		if err != nil {
			return err
		}
		o.Mailer = google.NewGmailMailer(srv.Gmail, cfg.Mail.From, logger)
	}

	deliveries := o.Notify(ctx, sess.Status, grouping.Payloads)
	sess.RecordNotify(sess.Status)
	if err := sess.Save(); err != nil {
		logger.Warn("could not save session", zap.Error(err))
	}

	for _, d := range deliveries {
		row := fmt.Sprintf("  %s: sent via %s", d.Assignee, strings.Join(d.Succeeded, ", "))
		if len(d.Succeeded) == 0 {
			row = fmt.Sprintf("  %s: nothing sent", d.Assignee)
		}
		failed := make([]string, 0, len(d.Failed))
		for channel, reason := range d.Failed {
			failed = append(failed, channel+" ("+reason+")")
		}
		sort.Strings(failed)
		if len(failed) > 0 {
			row += "; failed " + strings.Join(failed, ", ")
		}
		fmt.Fprintln(out, row)
	}
	if sess.Status.Step(workflow.StepNotify).State == workflow.StateFailed {
		return errors.New("some notifications failed")
	}
	return nil
}

func needsEmail(g *dispatch.Grouping) bool {
	for _, p := range g.Payloads {
		if strings.TrimSpace(p.Assignee.Email) != "" {
			return true
		}
	}
	return false
}
