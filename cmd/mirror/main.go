package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/campaign-mirror/internal/app"
	"github.com/samvad-hq/campaign-mirror/internal/config"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:           "mirror",
	Short:         "Mirror the newest newsletter campaign to the static site bucket.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one publish-or-skip pass (same as the bare command).",
	RunE:  rootCmd.RunE,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "path to the INI config file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "check and render locally without uploading, invalidating or moving the marker")
	rootCmd.AddCommand(runCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mirror failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.InfoObj("mirror starting", "config", map[string]any{
		"file":         cfg.File,
		"campaign_url": cfg.CampaignURL,
		"bucket":       cfg.S3Bucket,
		"distribution": cfg.CFDistroID,
		"region":       cfg.Region,
		"dry_run":      dryRun,
	})

	rt, err := app.Build(ctx, cfg, log, dryRun)
	if err != nil {
		log.ErrorObj("failed to initialize mirror", "error", err.Error())
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.WarnObj("runtime close failed", "error", err.Error())
		}
	}()

	res, err := rt.Mirror.RunOnce(ctx)
	if err != nil {
		log.ErrorObj("mirror run failed", "run", map[string]any{
			"run_id":     res.RunID,
			"detail_url": res.DetailURL,
			"error":      err.Error(),
		})
		return fmt.Errorf("mirror run: %w", err)
	}

	log.InfoObj("mirror finished", "run", map[string]any{
		"run_id":     res.RunID,
		"outcome":    res.Outcome,
		"detail_url": res.DetailURL,
	})
	return nil
}
