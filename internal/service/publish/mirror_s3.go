package publish

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"hpic-membership/internal/config"
)

var _ Mirror = (*S3Mirror)(nil)

// S3Mirror uploads the artifact to S3 or S3-compatible object storage.
// Custom endpoints use path-style addressing.
type S3Mirror struct {
	client *s3.Client
	target string
	bucket string
	key    string
}

// NewS3Mirror creates a mirror for an "s3://bucket/key" target using the
// static credentials from the environment config.
func NewS3Mirror(cfg *config.Config, target string) (*S3Mirror, error) {
	if !cfg.HasS3Config() {
		return nil, fmt.Errorf("S3 config is incomplete")
	}
	bucket, key, err := parseBucketKey(target, "s3")
	if err != nil {
		return nil, err
	}

	opts := s3.Options{
		Region: *cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.S3KeyID, *cfg.S3Secret, "",
		),
	}
	if cfg.S3Endpoint != nil {
		opts.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", *cfg.S3Endpoint))
		opts.UsePathStyle = true
	}

	return &S3Mirror{
		client: s3.New(opts),
		target: target,
		bucket: bucket,
		key:    key,
	}, nil
}

func (m *S3Mirror) Target() string { return m.target }

// Upload replaces the remote object with data.
func (m *S3Mirror) Upload(ctx context.Context, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, m.key, err)
	}
	return nil
}
