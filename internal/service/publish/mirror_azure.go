package publish

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

var _ Mirror = (*AzureMirror)(nil)

// AzureMirror uploads the artifact to Azure Blob Storage using shared-key
// credentials.
type AzureMirror struct {
	client    *azblob.Client
	target    string
	container string
	blob      string
}

// NewAzureMirror creates a mirror for an "az://container/blob" target.
func NewAzureMirror(accountName, accountKey, target string) (*AzureMirror, error) {
	container, blob, err := parseBucketKey(target, "az")
	if err != nil {
		return nil, err
	}

	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &AzureMirror{client: client, target: target, container: container, blob: blob}, nil
}

func (m *AzureMirror) Target() string { return m.target }

// Upload replaces the remote blob with data.
func (m *AzureMirror) Upload(ctx context.Context, data []byte) error {
	if _, err := m.client.UploadBuffer(ctx, m.container, m.blob, data, nil); err != nil {
		return fmt.Errorf("upload az://%s/%s: %w", m.container, m.blob, err)
	}
	return nil
}
