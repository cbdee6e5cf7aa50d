package commands

import (
	"context"
	"fmt"
	"os"

	"sigawatch/internal/config"

	"github.com/spf13/cobra"
)

var (
	settingsPath *string
	searchesPath *string
	envPath      *string
	verbose      *bool
)

// version is set at build time with -ldflags "-X sigawatch/cmd/siga/commands.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "siga",
	Version: version,
	Short:   "siga watches the SIGA booking site for free appointment slots.",
	// ExecuteContext prints the error once.
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	settingsPath = flags.String("settings", config.DefaultSettingsFile, "The settings file (json5).")
	searchesPath = flags.String("searches", "", "The search file (yaml), overrides search_file in the settings.")
	envPath = flags.String("env", ".env", "The dotenv file holding BOT_TOKEN and BOT_CHAT_ID.")
	verbose = flags.BoolP("verbose", "v", false, "Log debug output.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
