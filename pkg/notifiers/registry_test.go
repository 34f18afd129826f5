package notifiers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// isolateAWS points the SDK at empty shared files so host credentials never leak in.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write empty aws file: %v", err)
	}
	t.Setenv("AWS_CONFIG_FILE", empty)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", empty)
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
}

func staticEnv() Env {
	return Env{AWS: []func(*awscfg.LoadOptions) error{
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIDMIRROR", "secret", "")),
	}}
}

func TestSQSNotifierUsesSharedCredentials(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	n, err := newSQSNotifier(ctx, NotifierConfig{
		ID:   "queue",
		Type: TypeSQS,
		SQS:  &SQSNotifierConfig{QueueURL: "https://sqs.eu-west-1.amazonaws.com/1/q", Region: "eu-west-1"},
	}, staticEnv())
	if err != nil {
		t.Fatalf("newSQSNotifier: %v", err)
	}

	opts := n.(*sqsNotifier).client.(*sqs.Client).Options()
	if opts.Region != "eu-west-1" {
		t.Fatalf("sink region must win, got %q", opts.Region)
	}
	creds, err := opts.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKIDMIRROR" {
		t.Fatalf("AccessKeyID = %q, want the shared static key", creds.AccessKeyID)
	}
}

func TestSNSNotifierUsesSharedCredentials(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	n, err := newSNSNotifier(ctx, NotifierConfig{
		ID:   "topic",
		Type: TypeSNS,
		SNS:  &SNSNotifierConfig{TopicARN: "arn:aws:sns:us-west-2:1:t", Region: "us-west-2"},
	}, staticEnv())
	if err != nil {
		t.Fatalf("newSNSNotifier: %v", err)
	}

	opts := n.(*snsNotifier).client.(*sns.Client).Options()
	creds, err := opts.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKIDMIRROR" || opts.Region != "us-west-2" {
		t.Fatalf("unexpected client options region=%q key=%q", opts.Region, creds.AccessKeyID)
	}
}

func TestAWSSinksHonourSharedProfile(t *testing.T) {
	isolateAWS(t)
	env := Env{AWS: []func(*awscfg.LoadOptions) error{awscfg.WithSharedConfigProfile("newsletter")}}

	// The profile is absent from the shared files, so loading must fail
	// rather than silently fall back to the default chain.
	_, err := DefaultBuilders().BuildAll(context.Background(), []NotifierConfig{
		{ID: "queue", Type: TypeSQS, SQS: &SQSNotifierConfig{QueueURL: "https://sqs.example.com/q", Region: "us-east-1"}},
	}, env)
	if err == nil {
		t.Fatalf("expected missing profile error")
	}
}
