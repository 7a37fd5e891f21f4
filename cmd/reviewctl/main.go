// Command reviewctl runs and inspects salary-review batches without the
// HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/salaryreview/internal/config"
	"github.com/JonMunkholm/salaryreview/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

// globalFlags override the environment for a single invocation.
type globalFlags struct {
	envFile  string
	dir      string
	pending  string
	archive  string
	logLevel string
	jsonOut  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Send salary-review letters and inspect the payroll tables",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.envFile, "env-file", ".env", "Environment file to load if present")
	pf.StringVar(&g.dir, "dir", "", "Directory holding the tables (overrides STORAGE_DIR)")
	pf.StringVar(&g.pending, "pending", "", "Pending table name (overrides PENDING_SOURCE)")
	pf.StringVar(&g.archive, "archive", "", "Archive table name (overrides ARCHIVE_SOURCE)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	pf.BoolVarP(&g.jsonOut, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(runCmd(g))
	rootCmd.AddCommand(inspectCmd(g))
	rootCmd.AddCommand(renderCmd(g))

	return rootCmd
}

// loadConfig reads the env file, layers the flags over the environment and
// installs a logger on stderr.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", g.envFile, err)
		}
	}

	overrides := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			overrides[key] = value
		}
	}
	set("STORAGE_DIR", g.dir)
	set("PENDING_SOURCE", g.pending)
	set("ARCHIVE_SOURCE", g.archive)
	set("LOG_LEVEL", g.logLevel)

	cfg, err := config.LoadFrom(config.Overlay(overrides, os.LookupEnv))
	if err != nil {
		return nil, err
	}

	logging.SetupTo(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
