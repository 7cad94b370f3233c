package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/spf13/cobra"

	"fargatesoci/internal/contract"
	"fargatesoci/internal/logger"
	"fargatesoci/internal/metrics"
	"fargatesoci/internal/ollama"
	"fargatesoci/internal/registry"
	"fargatesoci/internal/server"
	"fargatesoci/internal/taskmeta"
	"fargatesoci/internal/warmup"
)

var (
	serveLogger = logger.PackageLogger("🚀 SERVE")

	engineBinary string
	listenAddr   string
)

const defaultServiceName = "DefaultServiceName"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Application container entrypoint",
	Long: `Starts the model engine, pulls the model, publishes the task's image pull
time to CloudWatch, then serves the prompt API on the primary port.

A failed warmup is logged and the API is served anyway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		model := envOr(contract.EnvModel, "deepseek-r1:1.5b")
		service := envOr(contract.EnvServiceName, defaultServiceName)
		engine := ollama.New(engineBinary, model)

		runWarmup(ctx, engine, service)

		srv := server.New(server.WithAddress(listenAddr), server.WithPrompter(engine))
		errs := make(chan error, 1)
		go func() { errs <- srv.Start() }()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
		}
		serveLogger.Info("shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			serveLogger.Warn("server shutdown: %s", err)
		}
		if err := engine.Stop(); err != nil {
			serveLogger.Debug("engine stop: %s", err)
		}
		return nil
	},
}

func runWarmup(ctx context.Context, engine *ollama.Runner, service string) {
	meta, err := taskmeta.NewFromEnv()
	if err != nil {
		serveLogger.Warn("task metadata: %s", err)
		meta = &taskmeta.Client{}
	}

	region := envOr("AWS_REGION", envOr("AWS_DEFAULT_REGION", ""))
	if region == "" {
		if cfg, err := loadConfig(); err == nil {
			region = cfg.Region
		}
	}
	awsCfg, err := registry.AwsConfig(ctx, region)
	if err != nil {
		serveLogger.Error("Failed to initialize: %s", err)
		return
	}

	w := &warmup.Warmup{
		Engine:      engine,
		Metadata:    meta,
		Recorder:    metrics.NewPublisher(cloudwatch.NewFromConfig(awsCfg)),
		ServiceName: service,
	}
	if _, err := w.Run(ctx); err != nil {
		serveLogger.Error("Background initialization failed: %s", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	serveCmd.Flags().StringVar(&engineBinary, "engine", ollama.DefaultBinary, "Path to the ollama binary")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "0.0.0.0:8080", "Address of the prompt API")
	rootCmd.AddCommand(serveCmd)
}
