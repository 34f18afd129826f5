package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samvad-hq/campaign-mirror/internal/assets"
	"github.com/samvad-hq/campaign-mirror/internal/cdn"
	"github.com/samvad-hq/campaign-mirror/internal/config"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
	"github.com/samvad-hq/campaign-mirror/internal/marker"
	"github.com/samvad-hq/campaign-mirror/internal/objectstore"
	"github.com/samvad-hq/campaign-mirror/internal/scrape"
	"github.com/samvad-hq/campaign-mirror/internal/site"
	"github.com/samvad-hq/campaign-mirror/internal/storage"
	"github.com/samvad-hq/campaign-mirror/pkg/httpclient"
	"github.com/samvad-hq/campaign-mirror/pkg/notifiers"
)

// Runtime owns a configured Mirror and the long-lived resources behind it.
type Runtime struct {
	Mirror  *Mirror
	journal storage.Journal
	fanout  *notifiers.Fanout
	log     logger.Logger
}

// Build wires every component from cfg. Templates are checked first so a
// broken install fails before any network activity.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, dryRun bool) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	templates, err := site.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	objects, err := objectstore.NewStore(cfg.S3Bucket, s3.NewFromConfig(awsCfg), log)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	invalidator, err := cdn.NewInvalidator(cfg.CFDistroID, cloudfront.NewFromConfig(awsCfg), log)
	if err != nil {
		return nil, fmt.Errorf("init cdn invalidator: %w", err)
	}

	client := httpclient.NewRestyClient(cfg.HTTPTimeout)
	fetcher := scrape.NewFetcher(client, scrape.Selectors{
		Campaign: cfg.CampaignSelector,
		Content:  cfg.ContentSelector,
		Archive:  cfg.ArchiveSelector,
	})
	images := assets.NewDownloader(client, assets.Options{
		Hosts:     cfg.ImageHosts,
		Prefix:    cfg.ImagePrefix,
		MirrorDir: cfg.DistDir,
	}, log)

	journal := openJournalOrNoop(cfg, log)
	log.InfoObj("journal initialized", "journal_config", map[string]any{
		"type":                     cfg.JournalType,
		"path":                     cfg.JournalPath,
		"ttl_seconds":              int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.JournalCleanupInterval.Seconds()),
	})

	fanout, err := buildNotifiers(ctx, cfg, log)
	if err != nil {
		journal.Close()
		return nil, err
	}

	deps := Deps{
		Source:      fetcher,
		Marker:      marker.New(objects, cfg.MarkerKey),
		Publisher:   objects,
		Images:      images,
		Invalidator: invalidator,
		Journal:     journal,
	}
	if fanout.Size() > 0 {
		deps.Notifier = fanout
	}

	mirror, err := NewMirror(Options{
		CampaignURL:       cfg.CampaignURL,
		Templates:         templates,
		DistDir:           cfg.DistDir,
		ScrapedDir:        cfg.ScrapedDir,
		InvalidationPaths: cfg.InvalidationPaths,
		DryRun:            dryRun,
	}, deps, log)
	if err != nil {
		journal.Close()
		fanout.Close()
		return nil, err
	}

	return &Runtime{Mirror: mirror, journal: journal, fanout: fanout, log: log}, nil
}

// OpenJournal opens the run journal configured in cfg.
func OpenJournal(cfg *config.Config) (storage.Journal, error) {
	journal, err := storage.NewJournal(cfg.JournalType, cfg.JournalPath, storage.Options{
		RecordTTL:       cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	return journal, nil
}

// openJournalOrNoop keeps publishing available when the journal cannot be
// opened, e.g. another process holds the bbolt lock.
func openJournalOrNoop(cfg *config.Config, log logger.Logger) storage.Journal {
	journal, err := OpenJournal(cfg)
	if err == nil {
		return journal
	}
	log.WarnObj("journal unavailable, runs will not be recorded", "journal", map[string]any{
		"type":  cfg.JournalType,
		"path":  cfg.JournalPath,
		"error": err.Error(),
	})
	fallback, _ := storage.NewJournal("none", "", storage.Options{})
	return fallback
}

// Close releases the journal and notifier clients.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.fanout != nil {
		if err := r.fanout.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

// awsOptions carries the credential choice shared by S3, CloudFront and the
// AWS notifiers: static keys when both are set, otherwise the named profile.
func awsOptions(cfg *config.Config) []func(*awscfg.LoadOptions) error {
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		return []func(*awscfg.LoadOptions) error{awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		)}
	}
	if cfg.Profile != "" {
		return []func(*awscfg.LoadOptions) error{awscfg.WithSharedConfigProfile(cfg.Profile)}
	}
	return nil
}

func loadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := append(awsOptions(cfg), awscfg.WithRegion(cfg.Region))
	return awscfg.LoadDefaultConfig(ctx, opts...)
}

// buildNotifiers returns an empty fanout when no notifiers file is configured.
func buildNotifiers(ctx context.Context, cfg *config.Config, log logger.Logger) (*notifiers.Fanout, error) {
	if cfg.NotifiersFile == "" {
		return notifiers.NewFanout(nil), nil
	}

	reg, err := notifiers.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabled := reg.Enabled()
	built, err := notifiers.DefaultBuilders().BuildAll(ctx, enabled, notifiers.Env{
		Log: log,
		AWS: awsOptions(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, n := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   n.ID,
			"type": n.Type,
		})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})
	return notifiers.NewFanout(built), nil
}
