package cmd

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"fargatesoci/internal/logger"
	"fargatesoci/internal/taskmeta"
)

var (
	lazyLogger = logger.PackageLogger("🦥 AMILAZY")

	lazyHold time.Duration
)

var lazycheckCmd = &cobra.Command{
	Use:   "lazycheck",
	Short: "Sidecar entrypoint: report which containers were lazily loaded",
	Long: `Reads the task metadata and logs, for every container in the task, whether
its image was served through the SOCI snapshotter, together with the task's
image pull time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := taskmeta.NewFromEnv()
		if err != nil {
			return err
		}
		task, err := client.Task(cmd.Context())
		if err != nil {
			return err
		}

		lazy := task.LazyLoaded()
		names := make([]string, 0, len(lazy))
		for name := range lazy {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if lazy[name] {
				lazyLogger.Success("%s: lazily loaded (soci)", name)
			} else {
				lazyLogger.Info("%s: fully pulled", name)
			}
		}
		if d, err := task.ImagePullTime(); err == nil {
			lazyLogger.Info("image pull time for %s: %.2f seconds", task.Family, d.Seconds())
		} else {
			lazyLogger.Warn("image pull time unavailable: %s", err)
		}

		if lazyHold > 0 {
			select {
			case <-time.After(lazyHold):
			case <-cmd.Context().Done():
			}
		}
		return nil
	},
}

func init() {
	lazycheckCmd.Flags().DurationVar(&lazyHold, "hold", 0, "Keep running this long after reporting")
	rootCmd.AddCommand(lazycheckCmd)
}
