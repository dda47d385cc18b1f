package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"promptdeck/internal/models"
	"promptdeck/internal/profile"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Show or change the saved backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.resolver.Active(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s%s\n", p.ID, p.Name, p.BaseURL, a.savedSuffix(ctx))
		return nil
	},
}

// savedSuffix names when the backend choice was last saved, if it was.
func (a *app) savedSuffix(ctx context.Context) string {
	if a.prefs == nil {
		return ""
	}
	at, ok, err := a.prefs.UpdatedAt(ctx, profile.PreferenceKey)
	if err != nil {
		a.logger.Warn("Failed to read preference timestamp", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return ", set at " + at.Format(time.DateTime)
}

var backendListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		writeBackendList(cmd.OutOrStdout(), a.cfg.Profiles.All(), a.resolver.Active(ctx).ID)
		return nil
	},
}

var backendSetCmd = &cobra.Command{
	Use:       "set <backend>",
	Short:     "Remember a backend for future runs",
	Args:      cobra.ExactArgs(1),
	ValidArgs: profileIDStrings(),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.resolver.SetActive(ctx, models.ProfileID(args[0])); err != nil {
			return err
		}
		p := a.resolver.Active(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "Active backend: %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

func init() {
	backendCmd.AddCommand(backendListCmd, backendSetCmd)
	rootCmd.AddCommand(backendCmd)
}

func writeBackendList(w io.Writer, all []models.Profile, active models.ProfileID) {
	for _, p := range all {
		marker := " "
		if p.ID == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-8s %-16s %s\n", marker, p.ID, p.Name, p.BaseURL)
	}
}

func profileIDStrings() []string {
	out := make([]string, len(models.KnownProfileIDs))
	for i, id := range models.KnownProfileIDs {
		out[i] = string(id)
	}
	return out
}
