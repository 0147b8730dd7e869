package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nsavage/relocore/internal/config"
	"github.com/nsavage/relocore/internal/logging"
	"github.com/nsavage/relocore/internal/session"
)

var logOutput string

// appVersion is set by main via SetApplicationVersion before Execute runs.
var appVersion = "dev"

// SetApplicationVersion records the linker-supplied build version for the
// version subcommand to report.
func SetApplicationVersion(v string) { appVersion = v }

var rootCmd = &cobra.Command{
	Use:   "relocore",
	Short: "A move-aware refactor engine for multi-language workspaces",
	Long: `relocore plans and applies file/directory moves, renames, and
local extract/inline refactors across a workspace, rewriting imports,
module declarations, and manifests so the move leaves the project in a
state that builds.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.PersistentFlags().Changed("log-format") {
			if cfg, err := config.NewConfigManager(afero.NewOsFs()).ReadConfig(); err == nil {
				logOutput = cfg.Logging.Output
			}
		}
		if err := logging.InitLogger(logOutput); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-format", "console", "Log output format (console, json, development)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the relocore build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), appVersion)
		},
	})
}

// newSession builds a Session wired to the OS filesystem, the way every
// subcommand in this package needs one. Each invocation gets its own
// Session since the CLI process exits after one operation.
func newSession() (*session.Session, error) {
	return session.New(afero.NewOsFs(), session.Options{})
}
