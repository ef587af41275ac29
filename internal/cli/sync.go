package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"zenfeed/internal/engine"
	"zenfeed/internal/feed"
	"zenfeed/internal/scheduler"

	"github.com/spf13/cobra"
)

func newSyncCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		Short:   "Fetch every feed once",
		GroupID: "system",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.Engine.Sync() {
				return errors.New("engine is closed")
			}

			ev, err := awaitEvent[engine.SyncFinished](cmd.Context(), app.Engine, nil)
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), ev.Report)

			return ev.Err
		},
	}
}

func newBriefingCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "briefing",
		Short:   "Summarize recent articles into a daily briefing",
		GroupID: "articles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !app.Engine.Briefing() {
				return errors.New("a briefing is already being generated")
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Generating daily briefing...")

			ev, err := awaitEvent[engine.BriefingFinished](ctx, app.Engine, nil)
			if err != nil {
				return err
			}
			if ev.Err != nil {
				return fmt.Errorf("generate briefing: %w", ev.Err)
			}

			return printMarkdown(ctx, cmd.OutOrStdout(), app, ev.Text)
		},
	}
}

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "run",
		Short:   "Sync now and then on the configured schedule until interrupted",
		GroupID: "system",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s := scheduler.New(app.SyncSchedule, app.Engine, app.Log)
			if err := s.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer s.Stop()

			app.Log.InfoContext(ctx, "Scheduler is started",
				"schedule", app.SyncSchedule)

			app.Engine.Sync()

			return drainEvents(ctx, cmd.OutOrStdout(), app)
		},
	}
}

// drainEvents is the interactive loop of the run command. It returns when ctx
// is done.
func drainEvents(ctx context.Context, out io.Writer, app *App) error {
	for {
		select {
		case <-ctx.Done():
			app.Log.InfoContext(ctx, "Run loop is stopped")

			return nil
		case ev, ok := <-app.Engine.Events():
			if !ok {
				return nil
			}

			switch ev := ev.(type) {
			case engine.SyncFinished:
				if ev.Err != nil {
					app.Log.ErrorContext(ctx, "Sync is finished with errors",
						"error", ev.Err)
				}
				printReport(out, ev.Report)
			case engine.ExtractFinished:
				app.Log.InfoContext(ctx, "Extraction is finished",
					"articleID", ev.ArticleID,
					"error", ev.Err)
			case engine.BriefingFinished:
				app.Log.InfoContext(ctx, "Briefing is finished",
					"error", ev.Err)
			}
		}
	}
}

func printReport(out io.Writer, r feed.Report) {
	status := "SYNCED"
	if r.Cancelled {
		status = "CANCELLED"
	}

	fmt.Fprintf(out, "%s feeds=%d ok=%d failed=%d new=%d\n",
		status, r.Feeds, r.Succeeded, len(r.Failures), r.NewArticles)

	for _, f := range r.Failures {
		fmt.Fprintf(out, "  FAILED [%d] %s: %v\n", f.FeedID, f.URL, f.Err)
	}
}
