package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/cohort-retention/internal/cohort"
	"github.com/ignite/cohort-retention/internal/pkg/logger"
)

// objectPutter is the subset of *s3.Client the sink needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes each variant's latest payload to {prefix}/{variant}.json.
// The object is overwritten on every run.
type S3Sink struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Sink creates an S3 sink using the default AWS credential chain.
func NewS3Sink(ctx context.Context, bucket, region, prefix string) (*S3Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for S3 sink: %w", err)
	}
	return newS3Sink(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newS3Sink(client objectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a variant
func (s *S3Sink) Key(variant string) string {
	return path.Join(s.prefix, variant+".json")
}

// Publish uploads the payload as JSON
func (s *S3Sink) Publish(ctx context.Context, variant string, payload *cohort.ChartPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	key := s.Key(variant)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", s.bucket, key, err)
	}

	logger.Info("payload written to S3", "variant", variant, "bucket", s.bucket, "key", key, "bytes", len(body))
	return nil
}
