package notifiers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
)

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsNotifier enqueues the event on an SQS queue.
type sqsNotifier struct {
	id       string
	queueURL string
	client   sqsClient
	log      logger.Logger
}

func newSQSNotifier(ctx context.Context, cfg NotifierConfig, env Env) (Notifier, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("notifier %q missing sqs configuration", cfg.ID)
	}
	awsCfg, err := env.awsConfig(ctx, cfg.SQS.Region)
	if err != nil {
		return nil, err
	}
	return &sqsNotifier{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      env.log(),
	}, nil
}

func (s *sqsNotifier) ID() string   { return s.id }
func (s *sqsNotifier) Type() string { return TypeSQS }

func (s *sqsNotifier) Notify(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	out, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"run_id": {DataType: aws.String("String"), StringValue: aws.String(evt.RunID)},
		},
	})
	if err != nil {
		return fmt.Errorf("send message to %s: %w", s.queueURL, err)
	}
	s.log.DebugObj("event queued", "notifier_sqs", map[string]any{
		"notifier_id": s.id,
		"run_id":      evt.RunID,
		"message_id":  aws.ToString(out.MessageId),
	})
	return nil
}
