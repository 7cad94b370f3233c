package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fargatesoci/internal/config"
	"fargatesoci/internal/failfast"
	"fargatesoci/internal/logger"
)

var (
	configFile string
	logLevel   string

	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fargatesoci",
	Short: "Side-by-side ECS Fargate deployment with and without SOCI lazy loading",
	Long: `fargatesoci declares two identical Fargate services, one pulling its image
through a SOCI index and one pulling it the classic way, and a dashboard
comparing how long each took to pull.

The same binary is the CDK app (synth), the application container (serve)
and its sidecar (lazycheck).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		lvl, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetDefaultLevel(lvl)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	failfast.Failfast(err, failfast.Error, "fargatesoci")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.ConfigFile, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG|INFO|WARN|ERROR (default from LOG_LEVEL)")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}
