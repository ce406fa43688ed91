package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gmaps2nav/config"
	"gmaps2nav/logging"
)

var rootOptions = struct {
	ConfigPath string
	DotEnvPath string
	Verbosity  int
	JSONLogs   bool
}{}

// settings is loaded once flags are parsed, before any command runs.
var settings *config.Config

var rootCmd = &cobra.Command{
	Use:   "gmaps2nav",
	Short: "Turn map share links into driving directions",
	Long: `
gmaps2nav resolves Google Maps and Apple Maps share links into a URL that
starts turn-by-turn navigation, and can push that URL to a phone or car
through Pushover.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logging.Setup(rootOptions.Verbosity, rootOptions.JSONLogs)

		cfg, err := config.Load(rootOptions.ConfigPath, rootOptions.DotEnvPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		settings = cfg
		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOptions.ConfigPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	flags.StringVar(&rootOptions.DotEnvPath, "env-file", "", "dotenv file (default ./"+config.DefaultDotEnv+" if present)")
	flags.CountVarP(&rootOptions.Verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.BoolVar(&rootOptions.JSONLogs, "log-json", false, "log JSON lines instead of console output")

	rootCmd.AddCommand(resolveCmd, pushCmd, serveCmd, versionCmd)
}
