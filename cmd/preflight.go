package cmd

import (
	"github.com/spf13/cobra"

	"fargatesoci/internal/docker"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check Docker and the image build contexts before cdk deploy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cli, err := docker.NewClient()
		if err != nil {
			return err
		}
		defer cli.Close()

		p := &docker.Preflight{Daemon: cli}
		err = p.Check(cmd.Context(),
			docker.BuildContext{Directory: cfg.Assets.App.Directory, File: cfg.Assets.App.File},
			docker.BuildContext{Directory: cfg.Assets.Sidecar.Directory, File: cfg.Assets.Sidecar.File},
		)
		if err != nil {
			errorColor.Fprintf(cmd.OutOrStdout(), "❌ %s\n", err)
			return err
		}
		successColor.Fprintln(cmd.OutOrStdout(), "✅ ready to deploy")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}
