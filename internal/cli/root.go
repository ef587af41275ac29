package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"zenfeed/internal/database"
	"zenfeed/internal/engine"
	"zenfeed/internal/feed"

	"github.com/spf13/cobra"
)

// App carries the dependencies shared by all commands.
type App struct {
	Store        *database.Database
	Source       *feed.Source
	Engine       *engine.Engine
	SyncSchedule string
	Log          *slog.Logger
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "zenfeed",
		Short:         "Personal RSS/Atom reader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddGroup(
		&cobra.Group{ID: "feeds", Title: "Feed Commands:"},
		&cobra.Group{ID: "articles", Title: "Article Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	root.SetHelpCommandGroupID("system")
	root.SetCompletionCommandGroupID("system")

	root.AddCommand(
		newSubscribeCommand(app),
		newUnsubscribeCommand(app),
		newFeedsCommand(app),
		newCategoriesCommand(app),
		newMoveCommand(app),
		newArticlesCommand(app),
		newShowCommand(app),
		newExtractCommand(app),
		newReadCommand(app, true),
		newReadCommand(app, false),
		newSaveCommand(app),
		newMarkReadCommand(app),
		newSyncCommand(app),
		newBriefingCommand(app),
		newRunCommand(app),
		newSettingsCommand(app),
	)

	return root
}

// Execute runs the command tree and returns the first error.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}

	return id, nil
}

// awaitEvent blocks until the engine reports an event of type T that match
// accepts. Other events are discarded.
func awaitEvent[T engine.Event](ctx context.Context, eng *engine.Engine, match func(T) bool) (T, error) {
	var zero T

	for {
		select {
		case ev, ok := <-eng.Events():
			if !ok {
				return zero, errors.New("engine is closed")
			}

			if t, isT := ev.(T); isT && (match == nil || match(t)) {
				return t, nil
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
