package publish

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var _ Mirror = (*GCSMirror)(nil)

// GCSMirror uploads the artifact to Google Cloud Storage.
type GCSMirror struct {
	client *storage.Client
	target string
	bucket string
	key    string
}

// NewGCSMirror creates a mirror for a "gs://bucket/key" target. With an
// empty keyFile the client falls back to application default credentials.
func NewGCSMirror(ctx context.Context, keyFile, target string) (*GCSMirror, error) {
	bucket, key, err := parseBucketKey(target, "gs")
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, keyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &GCSMirror{client: client, target: target, bucket: bucket, key: key}, nil
}

func (m *GCSMirror) Target() string { return m.target }

// Upload replaces the remote object with data.
func (m *GCSMirror) Upload(ctx context.Context, data []byte) error {
	w := m.client.Bucket(m.bucket).Object(m.key).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(data); err != nil {
		w.Close() //nolint:errcheck
		return fmt.Errorf("write gs://%s/%s: %w", m.bucket, m.key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", m.bucket, m.key, err)
	}
	return nil
}
