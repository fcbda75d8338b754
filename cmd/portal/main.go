package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/app"
)

var configFile string

// rootCmd runs the portal when invoked without a subcommand
var rootCmd = &cobra.Command{
	Use:           "portal",
	Short:         "Portal Fiscal ORPE web server",
	Long:          "Serves the admin and public client screens in front of the fiscal API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored sessions",
}

// sessionsPruneCmd runs one housekeeping pass, e.g. from cron when the
// server runs with a long housekeeping interval.
var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions idle longer than PORTAL_SESSION_IDLE_TTL",
	RunE:  runSessionsPrune,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides PORTAL_CONFIG_FILE)")

	sessionsCmd.AddCommand(sessionsPruneCmd)
	rootCmd.AddCommand(serveCmd, sessionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApplication() (*app.Application, error) {
	cfg, err := app.LoadConfigFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	return application.Run()
}

func runSessionsPrune(cmd *cobra.Command, _ []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}

	n, err := application.PruneSessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d idle sessions\n", n)
	return nil
}
