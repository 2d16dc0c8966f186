package main

import (
	"os"

	"github.com/spacesedan/sentai/config"
	"github.com/spacesedan/sentai/internal/logging"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "sentai",
	Short:         "Sentiment analysis of Reddit post comments",
	Long:          `sentai fetches the comments of a Reddit post, classifies each one as Positive, Neutral or Negative and aggregates the scores per label.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env, _ := cmd.Flags().GetString("env")
		if env == "" {
			env = os.Getenv("APP_ENV")
		}
		if env == "" {
			env = "dev"
		}
		config.LoadEnv(env)

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.LogLevel = level
		}
		logging.InitLogger(loaded.LogLevel)

		cfg = loaded
		return nil
	},
}

func main() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(consumeCmd)
	rootCmd.AddCommand(resultsCmd)

	rootCmd.PersistentFlags().String("env", "", "environment file to load from config/envs (default $APP_ENV or dev)")
	rootCmd.PersistentFlags().String("log-level", "", "debug|info|warn|error (default $LOG_LEVEL)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
