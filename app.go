package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harrisonrobin/taskdispatch/pkg/auth"
	"github.com/harrisonrobin/taskdispatch/pkg/google"
	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/roster"
	"github.com/harrisonrobin/taskdispatch/pkg/session"
	"github.com/harrisonrobin/taskdispatch/pkg/store"
	"github.com/harrisonrobin/taskdispatch/pkg/taxonomy"
	"github.com/harrisonrobin/taskdispatch/pkg/workflow"
)

func openSession() (*session.Session, error) {
	s, err := session.Open(appDir)
	if err != nil {
		return nil, fmt.Errorf("could not open session: %w", err)
	}
	return s, nil
}

func openRoster() (*roster.Roster, error) {
	r, err := roster.Open(appDir, taxonomy.Default().LiaisonNames())
	if err != nil {
		return nil, fmt.Errorf("could not open roster: %w", err)
	}
	return r, nil
}

func openStore() (*store.SQLiteStore, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

func googleServices(ctx context.Context) (*google.Services, error) {
	srv, err := google.NewClient(ctx, auth.Options{Dir: appDir, ADC: cfg.Google.ADC, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("google authorization failed (run `taskdispatch auth`): %w", err)
	}
	return srv, nil
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for i, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		fmt.Fprintf(w, "%d. %s\n   優先級：%s｜狀態：%s｜部門：%s｜負責人：%s｜截止：%s\n",
			i+1, t.Title, t.Priority.Label(), t.Status.Label(), t.Category, t.Assignee, due)
		if d := strings.TrimSpace(t.Description); d != "" && d != t.Title {
			fmt.Fprintf(w, "   %s\n", strings.ReplaceAll(d, "\n", "\n   "))
		}
	}
}

func printStatus(w io.Writer, status *workflow.Status) {
	if status == nil {
		return
	}
	for _, step := range workflow.Steps {
		fmt.Fprintf(w, "  %-20s %s\n", step, status.Message(step))
	}
}

// statusPrinter echoes step transitions as they happen.
func statusPrinter(w io.Writer) workflow.Handler {
	return func(ev workflow.Event) {
		if ev.State == workflow.StateRunning {
			fmt.Fprintf(w, "… %s\n", ev.Step)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", ev.Step, ev.Message)
	}
}
