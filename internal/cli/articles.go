package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"zenfeed/internal/domain"
	"zenfeed/internal/engine"
	"zenfeed/internal/markdown"

	"github.com/spf13/cobra"
)

const articleDateLayout = "2006-01-02 15:04"

func newArticlesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List articles, newest first",
		Long: `List articles. Filters are combined.

Examples:
  zenfeed articles --unread
  zenfeed articles --category Tech -q linux
  zenfeed articles --saved --limit 20`,
		GroupID: "articles",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			feedID, _ := cmd.Flags().GetInt64("feed")
			category, _ := cmd.Flags().GetString("category")
			unread, _ := cmd.Flags().GetBool("unread")
			saved, _ := cmd.Flags().GetBool("saved")
			search, _ := cmd.Flags().GetString("search")
			limit, _ := cmd.Flags().GetInt("limit")

			articles, err := app.Store.QueryArticles(cmd.Context(), domain.ArticleFilter{
				FeedID:     feedID,
				Category:   category,
				UnreadOnly: unread,
				SavedOnly:  saved,
				SearchTerm: search,
				Limit:      limit,
			})
			if err != nil {
				return fmt.Errorf("query articles: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, a := range articles {
				printArticleLine(out, a)
			}

			return nil
		},
	}

	cmd.Flags().Int64("feed", 0, "Only articles of this feed id")
	cmd.Flags().String("category", "", "Only articles of feeds in this category")
	cmd.Flags().BoolP("unread", "u", false, "Only unread articles")
	cmd.Flags().BoolP("saved", "s", false, "Only saved articles")
	cmd.Flags().StringP("search", "q", "", "Substring to match in title or content")
	cmd.Flags().IntP("limit", "n", domain.DefaultArticleLimit, "Maximum number of articles")

	return cmd
}

func printArticleLine(out io.Writer, a domain.Article) {
	marks := []byte("  ")
	if !a.IsRead {
		marks[0] = '*'
	}
	if a.IsSaved {
		marks[1] = 'S'
	}

	fmt.Fprintf(out, "%s %6d  %s  %s (%s)\n",
		marks, a.ID, a.PublishedAt.Local().Format(articleDateLayout), a.Title, a.FeedTitle)
}

func newShowCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <article-id>",
		Short:   "Show an article and mark it read",
		GroupID: "articles",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			article, err := loadArticle(ctx, app, args[0])
			if err != nil {
				return err
			}

			if _, err = app.Store.SetRead(ctx, article.ID, true); err != nil {
				return fmt.Errorf("mark read: %w", err)
			}

			raw, _ := cmd.Flags().GetBool("raw")

			return printArticle(ctx, cmd.OutOrStdout(), app, article, article.Body(), raw)
		},
	}

	cmd.Flags().Bool("raw", false, "Print the body without markdown rendering")

	return cmd
}

func newExtractCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "extract <article-id>",
		Short:   "Fetch the article's page and store its full text",
		GroupID: "articles",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			article, err := loadArticle(ctx, app, args[0])
			if err != nil {
				return err
			}

			if !app.Engine.Extract(*article) {
				return fmt.Errorf("extraction of article %d is already running", article.ID)
			}

			ev, err := awaitEvent(ctx, app.Engine, func(ev engine.ExtractFinished) bool {
				return ev.ArticleID == article.ID
			})
			if err != nil {
				return err
			}

			if ev.Err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Could not extract full text, showing feed content.")
				app.Log.WarnContext(ctx, "Failed to extract full text",
					"error", ev.Err,
					"articleID", article.ID)

				return printArticle(ctx, cmd.OutOrStdout(), app, article, article.Content, false)
			}

			return printArticle(ctx, cmd.OutOrStdout(), app, article, ev.Text, false)
		},
	}
}

func newReadCommand(app *App, read bool) *cobra.Command {
	use, short, verb := "read", "Mark articles read", "READ"
	if !read {
		use, short, verb = "unread", "Mark articles unread", "UNREAD"
	}

	return &cobra.Command{
		Use:     use + " <article-id>...",
		Short:   short,
		GroupID: "articles",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error

			for _, raw := range args {
				id, err := parseID(raw)
				if err != nil {
					errs = append(errs, err)

					continue
				}

				ok, err := app.Store.SetRead(cmd.Context(), id, read)
				if err != nil {
					return fmt.Errorf("set read: %w", err)
				}
				if !ok {
					errs = append(errs, fmt.Errorf("article %d not found", id))

					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", verb, id)
			}

			return errors.Join(errs...)
		},
	}
}

func newSaveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "save <article-id>",
		Short:   "Toggle the saved flag of an article",
		GroupID: "articles",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			article, err := loadArticle(ctx, app, args[0])
			if err != nil {
				return err
			}

			saved, err := app.Store.ToggleSaved(ctx, article.ID)
			if err != nil {
				return fmt.Errorf("toggle saved: %w", err)
			}

			if saved {
				fmt.Fprintf(cmd.OutOrStdout(), "SAVED %d\n", article.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "UNSAVED %d\n", article.ID)
			}

			return nil
		},
	}
}

func newMarkReadCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark-read",
		Short: "Mark every unread article of a feed, a category or everything read",
		Long: `Mark articles read in bulk. Exactly one of --feed, --category or --all is required.

Examples:
  zenfeed mark-read --feed 3
  zenfeed mark-read --category Tech
  zenfeed mark-read --all`,
		GroupID: "articles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			feedID, _ := cmd.Flags().GetInt64("feed")
			category, _ := cmd.Flags().GetString("category")
			all, _ := cmd.Flags().GetBool("all")

			var (
				count int64
				err   error
			)

			switch {
			case cmd.Flags().Changed("feed"):
				count, err = app.Store.MarkFeedRead(ctx, feedID)
			case cmd.Flags().Changed("category"):
				count, err = app.Store.MarkCategoryRead(ctx, category)
			case all:
				count, err = app.Store.MarkAllRead(ctx)
			default:
				return errors.New("one of --feed, --category or --all is required")
			}
			if err != nil {
				return fmt.Errorf("mark read: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "MARKED %d\n", count)

			return nil
		},
	}

	cmd.Flags().Int64("feed", 0, "Feed id")
	cmd.Flags().String("category", "", "Category name")
	cmd.Flags().Bool("all", false, "Every article")
	cmd.MarkFlagsMutuallyExclusive("feed", "category", "all")

	return cmd
}

func loadArticle(ctx context.Context, app *App, raw string) (*domain.Article, error) {
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}

	article, ok, err := app.Store.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("article %d not found", id)
	}

	return article, nil
}

func printArticle(
	ctx context.Context,
	out io.Writer,
	app *App,
	article *domain.Article,
	body string,
	raw bool,
) error {
	fmt.Fprintln(out, article.Title)
	fmt.Fprintf(out, "%s | %s\n", article.FeedTitle, article.PublishedAt.Local().Format(articleDateLayout))
	if article.URL != "" {
		fmt.Fprintln(out, article.URL)
	}
	fmt.Fprintln(out)

	if strings.TrimSpace(body) == "" {
		body = domain.NoContent
	}

	render, err := app.Store.GetBoolSetting(ctx, domain.SettingRenderMarkdown, true)
	if err != nil {
		return fmt.Errorf("get render setting: %w", err)
	}

	if raw || !render {
		fmt.Fprintln(out, body)

		return nil
	}

	return printMarkdown(ctx, out, app, body)
}

func printMarkdown(ctx context.Context, out io.Writer, app *App, text string) error {
	width, err := app.Store.GetSetting(ctx, domain.SettingReaderWidth, domain.DefaultReaderWidth)
	if err != nil {
		return fmt.Errorf("get reader width: %w", err)
	}

	rendered, err := markdown.Render(text, markdown.Width(width))
	if err != nil {
		app.Log.WarnContext(ctx, "Failed to render markdown",
			"error", err)
		fmt.Fprintln(out, text)

		return nil
	}

	fmt.Fprint(out, rendered)

	return nil
}
