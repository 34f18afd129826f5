package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/campaign-mirror/internal/domain"
)

// Package storage provides the local run journal.

// Journal records the outcome of every mirror run.
type Journal interface {
	Close() error
	Record(rec domain.RunRecord) error
	// Recent returns up to limit records, newest first. limit <= 0 returns all.
	Recent(limit int) ([]domain.RunRecord, error)
}

// Options controls retention characteristics for concrete journal implementations.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRecordTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 24 * time.Hour
)

// NewJournal creates the configured journal backend.
func NewJournal(typ, path string, opts Options) (Journal, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopJournal{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt journal requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported journal type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopJournal struct{}

func (noopJournal) Close() error                           { return nil }
func (noopJournal) Record(domain.RunRecord) error          { return nil }
func (noopJournal) Recent(int) ([]domain.RunRecord, error) { return nil, nil }
