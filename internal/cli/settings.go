package cli

import (
	"fmt"
	"zenfeed/internal/domain"

	"github.com/spf13/cobra"
)

var settingDefaults = map[string]string{
	domain.SettingTheme:            domain.DefaultTheme,
	domain.SettingReaderWidth:      domain.DefaultReaderWidth,
	domain.SettingEnableAIBriefing: "False",
	domain.SettingRenderMarkdown:   "True",
}

func newSettingsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Short:   "Read and change settings",
		GroupID: "system",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := app.Store.GetSetting(cmd.Context(), args[0], settingDefaults[args[0]])
				if err != nil {
					return fmt.Errorf("get setting: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), value)

				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a setting",
			Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.Store.SetSetting(cmd.Context(), args[0], args[1]); err != nil {
					return fmt.Errorf("set setting: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "SET %s=%s\n", args[0], args[1])

				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every stored setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				settings, err := app.Store.ListSettings(cmd.Context())
				if err != nil {
					return fmt.Errorf("list settings: %w", err)
				}

				for _, s := range settings {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", s.Key, s.Value)
				}

				return nil
			},
		},
	)

	return cmd
}
