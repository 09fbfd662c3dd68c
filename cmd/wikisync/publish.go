package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-wikisync/cmd/wikisync/internal/bootstrap"
	publishcmd "github.com/goliatone/go-wikisync/internal/commands/publish"
)

func (a *app) runPublish(cmd *cobra.Command, args []string) error {
	module, err := a.build(false)
	if err != nil {
		return a.fail(err)
	}
	return a.fail(a.publishOnce(cmd.Context(), module, pathArg(args)))
}

// publishOnce dispatches one publish command and prints its report.
func (a *app) publishOnce(ctx context.Context, module *bootstrap.Module, path string) error {
	var report *publishcmd.Report
	handler := module.Container.PublishTreeHandler(func(r publishcmd.Report) {
		report = &r
	})
	sub := dispatcher.SubscribeCommand(handler)
	defer sub.Unsubscribe()

	err := dispatcher.Dispatch(ctx, publishcmd.PublishTreeCommand{
		Path:   path,
		Labels: a.labels,
		DryRun: module.Container.Config.Publish.DryRun,
	})
	if report != nil {
		printReport(a.out, report)
	}
	return err
}

func (a *app) fail(err error) error {
	if err != nil {
		fmt.Fprintf(a.errOut, "wikisync: %v\n", err)
	}
	return err
}

func printReport(w io.Writer, report *publishcmd.Report) {
	mode := ""
	if report.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "run %s%s\n", report.RunID, mode)

	if report.Book != nil {
		for _, problem := range report.Book.Problems() {
			fmt.Fprintf(w, "  ignored  %s\n", problem.Error())
		}
	}
	result := report.Result
	if result == nil {
		return
	}
	for _, title := range result.Created {
		fmt.Fprintf(w, "  created  %s\n", title)
	}
	for _, title := range result.Updated {
		fmt.Fprintf(w, "  updated  %s\n", title)
	}
	for i, title := range result.Skipped {
		reason := ""
		if i < len(result.Problems) && result.Problems[i] != nil {
			reason = " (" + result.Problems[i].Error() + ")"
		}
		fmt.Fprintf(w, "  skipped  %s%s\n", title, reason)
	}
	fmt.Fprintf(w, "%d created, %d updated, %d skipped\n",
		len(result.Created), len(result.Updated), len(result.Skipped))
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
