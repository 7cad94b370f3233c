package cmd

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/spf13/cobra"

	"fargatesoci/internal/metrics"
	"fargatesoci/internal/registry"
	"fargatesoci/internal/variant"
)

var reportWindow time.Duration

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare average image pull time of both services",
	Long: `Reads the ImagePullTime metric of both services from CloudWatch over the
given window and prints the improvement of the SOCI service over the baseline.
Each side is averaged over all 5-minute periods in the window before the
dashboard's improvement formula is applied, so the result can differ from the
single-value widget, which shows only the latest period.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		awsCfg, err := registry.AwsConfig(cmd.Context(), cfg.Region)
		if err != nil {
			return err
		}

		c, err := metrics.NewReporter(cloudwatch.NewFromConfig(awsCfg)).Compare(cmd.Context(), reportWindow)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		infoColor.Fprintf(out, "Image pull time over the last %s\n", reportWindow)
		fmt.Fprintf(out, "  %-16s %8.2fs  (%d samples)\n", variant.Baseline.ServiceName(), c.Baseline, c.Samples[variant.Baseline])
		fmt.Fprintf(out, "  %-16s %8.2fs  (%d samples)\n", variant.FastStart.ServiceName(), c.FastStart, c.Samples[variant.FastStart])
		if c.Improvement >= 0 {
			successColor.Fprintf(out, "Performance improvement with SOCI: %.1f%%\n", c.Improvement)
		} else {
			warnColor.Fprintf(out, "SOCI regression: %.1f%%\n", c.Improvement)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().DurationVar(&reportWindow, "window", 3*time.Hour, "How far back to read the metric")
	rootCmd.AddCommand(reportCmd)
}
