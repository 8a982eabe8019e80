package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spacetwo/spacetwo-chat/internal/telemetry"
	"github.com/spacetwo/spacetwo-chat/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "spacetwo",
	Short: "Chat assistant that recommends creative collaborators from a vector index.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// A missing .env is fine: production sets the environment directly.
		_ = godotenv.Load()
		telemetry.InstallPropagator()
		return nil
	},
	Version:      version.String(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env", "", `config environment, e.g. "local" or "prod" (default: $ENV or local)`)
	rootCmd.PersistentFlags().String("config-dir", "", "directory holding <env>.yaml (default: search ./config)")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level")

	for _, name := range []string{"env", "config-dir", "log-level"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(serveCmd, seedCmd, ingestCmd, embedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
