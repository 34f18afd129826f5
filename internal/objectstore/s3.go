package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/samvad-hq/campaign-mirror/internal/domain"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
)

// ErrNotFound is returned by Get when the key does not exist in the bucket.
var ErrNotFound = errors.New("object not found")

// S3API defines the minimal subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store reads and writes objects at the root of a single bucket.
// Puts overwrite unconditionally.
type Store struct {
	bucket string
	client S3API
	log    logger.Logger
}

// NewStore wraps an S3 client for the given bucket.
func NewStore(bucket string, client S3API, log logger.Logger) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	return &Store{bucket: bucket, client: client, log: logger.Ensure(log)}, nil
}

// Put uploads the item under its key with its content type.
func (s *Store) Put(ctx context.Context, item domain.PublishItem) error {
	if item.Key == "" {
		return fmt.Errorf("publish item has empty key")
	}
	body := item.Payload.Bytes()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(item.Key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(item.ContentType),
	})
	if err != nil {
		s.log.ErrorObj("object upload failed", "upload_error", map[string]any{
			"bucket": s.bucket,
			"key":    item.Key,
			"error":  err.Error(),
		})
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, item.Key, err)
	}

	s.log.InfoObj("object uploaded", "upload", map[string]any{
		"bucket":       s.bucket,
		"key":          item.Key,
		"content_type": item.ContentType,
		"payload":      item.Payload.Kind().String(),
		"bytes":        len(body),
	})
	return nil
}

// Get downloads the object at key. A missing key yields an error wrapping ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
