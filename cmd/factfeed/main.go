package main

import (
	"os"

	"github.com/Luismorlan/factfeed/config"
	"github.com/Luismorlan/factfeed/utils/dotenv"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/spf13/cobra"
)

const serviceName = "factfeed"

var (
	configPath string
	cfg        config.Config
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "factfeed",
		Short:         "News aggregation backend with voting, comments and fact checking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := dotenv.LoadDotEnvs(); err != nil {
				return err
			}
			if configPath != "" {
				os.Setenv(config.ConfigFileEnv, configPath)
			}
			InitLogger(serviceName + "-" + cmd.Name())
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file, overrides $"+config.ConfigFileEnv)

	root.AddCommand(
		serveCmd(),
		workerCmd(),
		migrateCmd(),
		ingestCmd(),
		reconcileCmd(),
		sweepCmd(),
		sourceCmd(),
	)
	return root
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		Log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
