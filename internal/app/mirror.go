package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/campaign-mirror/internal/domain"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
	"github.com/samvad-hq/campaign-mirror/internal/marker"
	"github.com/samvad-hq/campaign-mirror/internal/site"
	"github.com/samvad-hq/campaign-mirror/internal/storage"
	"github.com/samvad-hq/campaign-mirror/pkg/notifiers"
)

const (
	htmlContentType = "text/html"

	scratchCampaign = "latest.html"
	scratchLink     = "latest.txt"
	scratchArchive  = "archive.html"
)

// CampaignSource reads the remote campaign archive.
type CampaignSource interface {
	FetchLatest(ctx context.Context, indexURL string) (domain.Campaign, error)
	FetchArchive(ctx context.Context, indexURL string) (string, error)
}

// MarkerStore persists the detail URL of the last published campaign.
type MarkerStore interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, value string) error
}

// AssetPublisher uploads a single item to the object store.
type AssetPublisher interface {
	Put(ctx context.Context, item domain.PublishItem) error
}

// ImageCollector downloads allow-listed images referenced by a campaign body.
type ImageCollector interface {
	Collect(ctx context.Context, body string) ([]domain.PublishItem, error)
}

// CacheInvalidator refreshes CDN paths and returns the invalidation id.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, paths []string) (string, error)
}

// EventNotifier announces a committed publish.
type EventNotifier interface {
	Notify(ctx context.Context, evt notifiers.Event) (int, error)
}

// Options holds the per-installation inputs of a mirror run.
type Options struct {
	CampaignURL       string
	Templates         site.Templates
	DistDir           string
	ScrapedDir        string
	InvalidationPaths []string
	DryRun            bool
}

// Deps are the collaborators a Mirror drives. Notifier and Journal are optional.
type Deps struct {
	Source      CampaignSource
	Marker      MarkerStore
	Publisher   AssetPublisher
	Images      ImageCollector
	Invalidator CacheInvalidator
	Notifier    EventNotifier
	Journal     storage.Journal
}

// Result summarizes one run.
type Result struct {
	RunID          string
	Outcome        domain.Outcome
	DetailURL      string
	PreviousMarker string
	PublishedKeys  []string
	InvalidationID string
	// InvalidationErr is set when the CDN refresh failed. The run still commits.
	InvalidationErr error
}

// Mirror runs the publish-or-skip workflow. Runs must not overlap: the marker
// is overwritten without any compare-and-swap.
type Mirror struct {
	opts Options
	deps Deps
	log  logger.Logger

	newRunID func() string
	now      func() time.Time
}

// NewMirror validates deps and builds a Mirror.
func NewMirror(opts Options, deps Deps, log logger.Logger) (*Mirror, error) {
	switch {
	case opts.CampaignURL == "":
		return nil, fmt.Errorf("campaign url must not be empty")
	case deps.Source == nil:
		return nil, fmt.Errorf("campaign source must not be nil")
	case deps.Marker == nil:
		return nil, fmt.Errorf("marker store must not be nil")
	case deps.Publisher == nil:
		return nil, fmt.Errorf("asset publisher must not be nil")
	case deps.Images == nil:
		return nil, fmt.Errorf("image collector must not be nil")
	case deps.Invalidator == nil:
		return nil, fmt.Errorf("cache invalidator must not be nil")
	case len(opts.InvalidationPaths) == 0:
		return nil, fmt.Errorf("invalidation paths must not be empty")
	}
	return &Mirror{
		opts:     opts,
		deps:     deps,
		log:      logger.Ensure(log),
		newRunID: uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RunOnce performs one CHECK and, when a new campaign is found, one PUBLISH.
// The marker write is the final step; any earlier failure leaves it untouched
// so the next run retries the whole sequence.
func (m *Mirror) RunOnce(ctx context.Context) (res Result, err error) {
	started := m.now()
	res = Result{RunID: m.newRunID(), Outcome: domain.OutcomeFailed}
	defer func() { m.record(res, err, started) }()

	campaign, err := m.deps.Source.FetchLatest(ctx, m.opts.CampaignURL)
	if err != nil {
		return res, fmt.Errorf("fetch latest campaign: %w", err)
	}
	res.DetailURL = campaign.DetailURL

	previous, err := m.readMarker(ctx)
	if err != nil {
		return res, err
	}
	res.PreviousMarker = previous

	if previous == campaign.DetailURL {
		res.Outcome = domain.OutcomeSkipped
		m.log.InfoObj("campaign already published", "run", map[string]any{
			"run_id":     res.RunID,
			"detail_url": campaign.DetailURL,
		})
		return res, nil
	}

	m.log.InfoObj("new campaign detected", "run", map[string]any{
		"run_id":          res.RunID,
		"detail_url":      campaign.DetailURL,
		"previous_marker": previous,
	})

	pages, err := m.buildPages(ctx, campaign)
	if err != nil {
		return res, err
	}

	if m.opts.DryRun {
		res.Outcome = domain.OutcomeDryRun
		m.log.InfoObj("dry run finished, no remote writes", "run", map[string]any{
			"run_id":     res.RunID,
			"detail_url": campaign.DetailURL,
			"dist_dir":   m.opts.DistDir,
		})
		return res, nil
	}

	for _, item := range pages {
		if err := m.deps.Publisher.Put(ctx, item); err != nil {
			return res, fmt.Errorf("publish page %s: %w", item.Key, err)
		}
		res.PublishedKeys = append(res.PublishedKeys, item.Key)
	}

	images, err := m.deps.Images.Collect(ctx, campaign.ContentHTML)
	if err != nil {
		return res, fmt.Errorf("collect images: %w", err)
	}
	for _, item := range images {
		if err := m.deps.Publisher.Put(ctx, item); err != nil {
			return res, fmt.Errorf("publish image %s: %w", item.Key, err)
		}
		res.PublishedKeys = append(res.PublishedKeys, item.Key)
	}

	id, invErr := m.deps.Invalidator.Invalidate(ctx, m.opts.InvalidationPaths)
	if invErr != nil {
		res.InvalidationErr = invErr
		m.log.ErrorObj("cache invalidation failed, committing marker anyway", "invalidation", map[string]any{
			"run_id": res.RunID,
			"paths":  m.opts.InvalidationPaths,
			"error":  invErr.Error(),
		})
	} else {
		res.InvalidationID = id
	}

	if err := m.deps.Marker.Write(ctx, campaign.DetailURL); err != nil {
		return res, fmt.Errorf("commit marker: %w", err)
	}
	res.Outcome = domain.OutcomePublished

	m.log.InfoObj("campaign published", "run", map[string]any{
		"run_id":          res.RunID,
		"detail_url":      campaign.DetailURL,
		"published_keys":  res.PublishedKeys,
		"invalidation_id": res.InvalidationID,
	})

	m.notify(ctx, res)
	return res, nil
}

// readMarker treats a missing marker as the empty string.
func (m *Mirror) readMarker(ctx context.Context) (string, error) {
	previous, err := m.deps.Marker.Read(ctx)
	if err == nil {
		return previous, nil
	}
	if errors.Is(err, marker.ErrNotFound) {
		m.log.InfoObj("no marker found, treating as first run", "marker", err.Error())
		return "", nil
	}
	return "", err
}

// buildPages renders both pages and writes the local scratch and dist copies.
func (m *Mirror) buildPages(ctx context.Context, campaign domain.Campaign) ([]domain.PublishItem, error) {
	archive, err := m.deps.Source.FetchArchive(ctx, m.opts.CampaignURL)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}

	scratch := map[string]string{
		scratchCampaign: campaign.ContentHTML,
		scratchLink:     campaign.DetailURL,
		scratchArchive:  archive,
	}
	for name, body := range scratch {
		if _, err := site.WriteFile(m.opts.ScrapedDir, name, []byte(body)); err != nil {
			return nil, fmt.Errorf("write scratch file: %w", err)
		}
	}

	pages := []domain.PublishItem{
		{Key: site.IndexPage, Payload: domain.TextPayload(m.opts.Templates.Render(campaign.ContentHTML)), ContentType: htmlContentType},
		{Key: site.ArchivePage, Payload: domain.TextPayload(m.opts.Templates.Render(archive)), ContentType: htmlContentType},
	}
	for _, p := range pages {
		if _, err := site.WriteFile(m.opts.DistDir, p.Key, p.Payload.Bytes()); err != nil {
			return nil, fmt.Errorf("write rendered page: %w", err)
		}
	}
	return pages, nil
}

// notify is best effort; the marker is already committed.
func (m *Mirror) notify(ctx context.Context, res Result) {
	if m.deps.Notifier == nil {
		return
	}
	evt := notifiers.NewEvent(res.RunID, res.DetailURL, res.PublishedKeys, res.InvalidationID)
	delivered, err := m.deps.Notifier.Notify(ctx, evt)
	if err != nil {
		m.log.WarnObj("publish notification failed", "notify", map[string]any{
			"run_id":    res.RunID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	m.log.DebugObj("publish notification delivered", "notify", map[string]any{
		"run_id":    res.RunID,
		"delivered": delivered,
	})
}

// record appends the run to the journal. Journal failures never change the outcome.
func (m *Mirror) record(res Result, runErr error, started time.Time) {
	if m.deps.Journal == nil {
		return
	}
	rec := domain.RunRecord{
		RunID:          res.RunID,
		Outcome:        res.Outcome,
		DetailURL:      res.DetailURL,
		PreviousMarker: res.PreviousMarker,
		PublishedKeys:  res.PublishedKeys,
		InvalidationID: res.InvalidationID,
		StartedAt:      started,
		FinishedAt:     m.now(),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	} else if res.InvalidationErr != nil {
		rec.Error = res.InvalidationErr.Error()
	}
	if err := m.deps.Journal.Record(rec); err != nil {
		m.log.WarnObj("journal record failed", "journal", map[string]any{
			"run_id": res.RunID,
			"error":  err.Error(),
		})
	}
}
