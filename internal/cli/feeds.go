package cli

import (
	"errors"
	"fmt"
	"strings"
	"zenfeed/internal/domain"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newSubscribeCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe <text with feed URLs>...",
		Short: "Subscribe to every feed URL found in the arguments",
		Long: `Subscribe to feeds. Every http(s) URL in the arguments is fetched and
subscribed when it parses as an RSS/Atom feed; other URLs are reported.

Examples:
  zenfeed subscribe https://9to5linux.com/feed
  zenfeed subscribe --category Tech "https://a.example/rss and https://b.example/atom"`,
		GroupID: "feeds",
		Aliases: []string{"add"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category, _ := cmd.Flags().GetString("category")

			feeds, findErr := app.Source.FindValidFeeds(ctx, strings.Join(args, " "))
			if findErr != nil {
				app.Log.WarnContext(ctx, "Some URLs are not valid feeds",
					"error", findErr)
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", findErr)
			}

			for _, f := range feeds {
				id, err := app.Store.SubscribeFeed(ctx, f.URL, f.Title, category, f.IconURL)
				if err != nil {
					return fmt.Errorf("subscribe feed: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "SUBSCRIBED %d %s\n", id, f.Title)
			}

			if len(feeds) == 0 {
				return errors.New("no feeds subscribed")
			}

			return nil
		},
	}

	cmd.Flags().StringP("category", "c", domain.DefaultCategory, "Category for the new feeds")

	return cmd
}

func newUnsubscribeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "unsubscribe <feed-id>",
		Short:   "Remove a feed and all of its articles",
		GroupID: "feeds",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ok, err := app.Store.UnsubscribeFeed(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("unsubscribe feed: %w", err)
			}
			if !ok {
				return fmt.Errorf("feed %d not found", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "UNSUBSCRIBED %d\n", id)

			return nil
		},
	}
}

func newFeedsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "feeds",
		Short:   "List feeds grouped by category with unread counts",
		GroupID: "feeds",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			feeds, err := app.Store.ListFeeds(ctx)
			if err != nil {
				return fmt.Errorf("list feeds: %w", err)
			}

			counts, err := app.Store.UnreadCountsByFeed(ctx)
			if err != nil {
				return fmt.Errorf("count unread: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(feeds) == 0 {
				fmt.Fprintln(out, "No feeds. Use 'zenfeed subscribe <url>' to add one.")

				return nil
			}

			byCategory := lo.GroupBy(feeds, func(f domain.Feed) string { return f.Category })
			categories := lo.Uniq(lo.Map(feeds, func(f domain.Feed, _ int) string { return f.Category }))

			for _, category := range categories {
				fmt.Fprintln(out, category)

				for _, f := range byCategory[category] {
					fmt.Fprintf(out, "  [%d] %s (%d unread)\n", f.ID, f.Title, counts[f.ID])
				}
			}

			return nil
		},
	}
}

func newCategoriesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "categories",
		Short:   "List categories",
		GroupID: "feeds",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := app.Store.ListCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}

			for _, category := range categories {
				fmt.Fprintln(cmd.OutOrStdout(), category)
			}

			return nil
		},
	}
}

func newMoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "move <feed-id> <category>",
		Short:   "Move a feed to another category",
		GroupID: "feeds",
		Args:    cobra.ExactArgs(2), //nolint:mnd // id and category
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ok, err := app.Store.SetFeedCategory(cmd.Context(), id, args[1])
			if err != nil {
				return fmt.Errorf("set feed category: %w", err)
			}
			if !ok {
				return fmt.Errorf("feed %d not found", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "MOVED %d %s\n", id, strings.TrimSpace(args[1]))

			return nil
		},
	}
}
