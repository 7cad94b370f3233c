package cmd

import (
	"github.com/aws/jsii-runtime-go"
	"github.com/spf13/cobra"

	"fargatesoci/internal/infra"
	"fargatesoci/internal/logger"
)

var synthLogger = logger.PackageLogger("🏗️ SYNTH")

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize the CloudFormation template (run by the cdk CLI)",
	Long: `Builds the CDK app from the configuration and writes the cloud assembly
to the directory the cdk CLI passes in CDK_OUTDIR (cdk.out by default).

Use "cdk deploy" / "cdk destroy" from the repository root to apply it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer jsii.Close()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return synthLogger.Timed("synth of "+cfg.StackName, func() error {
			app, _, err := infra.NewApp(cfg)
			if err != nil {
				return err
			}
			asm := app.Synth(nil)
			synthLogger.Info("cloud assembly written to %s", *asm.Directory())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(synthCmd)
}
