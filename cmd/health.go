package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"promptdeck/internal/models"
	"promptdeck/internal/styles"
)

var (
	healthAll     bool
	healthBackend string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe backend health endpoints",
	Long: `Probe the active backend's health endpoint, retrying with the
configured delay. Exits non-zero if any probed backend is unhealthy.

Examples:
  promptdeck health
  promptdeck health --all
  promptdeck health --backend openai`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVarP(&healthAll, "all", "a", false, "Probe every backend")
	healthCmd.Flags().StringVarP(&healthBackend, "backend", "b", "", "Probe this backend instead of the active one")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{backend: healthBackend})
	if err != nil {
		return err
	}
	defer a.Close()

	targets := []models.Profile{a.resolver.Active(ctx)}
	if healthAll {
		targets = a.cfg.Profiles.All()
	}

	unhealthy := 0
	for _, p := range targets {
		status := models.HealthUnhealthy
		if a.client.ProbeHealth(ctx, p) {
			status = models.HealthHealthy
		} else {
			unhealthy++
		}
		writeHealthLine(cmd.OutOrStdout(), p, status)
	}

	if unhealthy > 0 {
		return fmt.Errorf("%d of %d backends unhealthy", unhealthy, len(targets))
	}
	return nil
}

func writeHealthLine(w io.Writer, p models.Profile, status models.HealthStatus) {
	fmt.Fprintf(w, "%-8s %-32s %s\n", p.ID, p.HealthEndpoint, styles.HealthLabel(status))
}
