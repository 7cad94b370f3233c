package cmd

import (
	"github.com/spf13/cobra"

	"fargatesoci/internal/registry"
	"fargatesoci/internal/variant"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that only the fast-start repository has a SOCI index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		awsCfg, err := registry.AwsConfig(cmd.Context(), cfg.Region)
		if err != nil {
			return err
		}

		repos := map[variant.Variant]string{}
		for _, v := range variant.Variants() {
			repos[v] = cfg.Registry.RepositoryName(v)
		}
		found, err := registry.NewIndexChecker(awsCfg).Verify(cmd.Context(), repos)

		out := cmd.OutOrStdout()
		for _, v := range variant.Variants() {
			for _, a := range found[v] {
				infoColor.Fprintf(out, "%s  %s  %s\n", repos[v], a.Digest, a.MediaType)
			}
		}
		if err != nil {
			errorColor.Fprintf(out, "❌ %s\n", err)
			return err
		}
		successColor.Fprintf(out, "✅ %s is indexed, %s is not\n", repos[variant.FastStart], repos[variant.Baseline])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
