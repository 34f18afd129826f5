package notifiers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
)

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsNotifier publishes the event to an SNS topic.
type snsNotifier struct {
	id       string
	topicARN string
	client   snsClient
	log      logger.Logger
}

func newSNSNotifier(ctx context.Context, cfg NotifierConfig, env Env) (Notifier, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("notifier %q missing sns configuration", cfg.ID)
	}
	awsCfg, err := env.awsConfig(ctx, cfg.SNS.Region)
	if err != nil {
		return nil, err
	}
	return &snsNotifier{
		id:       cfg.ID,
		topicARN: cfg.SNS.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      env.log(),
	}, nil
}

func (s *snsNotifier) ID() string   { return s.id }
func (s *snsNotifier) Type() string { return TypeSNS }

func (s *snsNotifier) Notify(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(body),
		Subject:  aws.String("campaign published"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"run_id": {DataType: aws.String("String"), StringValue: aws.String(evt.RunID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", s.topicARN, err)
	}
	s.log.DebugObj("event published", "notifier_sns", map[string]any{
		"notifier_id": s.id,
		"run_id":      evt.RunID,
		"message_id":  aws.ToString(out.MessageId),
	})
	return nil
}
