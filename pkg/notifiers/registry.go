package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
)

// Env is the process-wide context every sink is built from.
type Env struct {
	Log logger.Logger
	// AWS holds credential and profile options shared with the rest of the
	// process. A sink's own region is applied after them.
	AWS []func(*awscfg.LoadOptions) error
}

func (e Env) log() logger.Logger { return logger.Ensure(e.Log) }

func (e Env) awsConfig(ctx context.Context, region string) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := make([]func(*awscfg.LoadOptions) error, 0, len(e.AWS)+1)
	opts = append(opts, e.AWS...)
	opts = append(opts, awscfg.WithRegion(region))
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Builder creates a Notifier from one config entry.
type Builder func(ctx context.Context, cfg NotifierConfig, env Env) (Notifier, error)

// Builders maps notifier types to their constructors.
type Builders map[string]Builder

// DefaultBuilders knows every supported sink type.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:      newHTTPNotifier,
		TypeSQS:       newSQSNotifier,
		TypeSNS:       newSNSNotifier,
		TypeGCPPubSub: newGCPPubSubNotifier,
	}
}

// BuildAll instantiates a notifier per config. Notifiers already built are
// closed when a later one fails.
func (b Builders) BuildAll(ctx context.Context, cfgs []NotifierConfig, env Env) ([]Notifier, error) {
	built := make([]Notifier, 0, len(cfgs))
	for _, cfg := range cfgs {
		build, ok := b[strings.ToLower(strings.TrimSpace(cfg.Type))]
		if !ok {
			closeAll(built)
			return nil, fmt.Errorf("notifier %q: unsupported type %q", cfg.ID, cfg.Type)
		}
		n, err := build(ctx, cfg, env)
		if err != nil {
			closeAll(built)
			return nil, fmt.Errorf("build notifier %q: %w", cfg.ID, err)
		}
		built = append(built, n)
	}
	return built, nil
}

func closeAll(ns []Notifier) error {
	var first error
	for _, n := range ns {
		c, ok := n.(closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("close notifier %q: %w", n.ID(), err)
		}
	}
	return first
}

// encodeEvent is the wire body shared by the queue and topic sinks.
func encodeEvent(evt Event) (string, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(payload), nil
}
