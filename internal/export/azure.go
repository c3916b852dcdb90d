package export

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

var _ Uploader = (*AzureUploader)(nil)

// AzureUploader writes artifacts to Azure Blob Storage using a shared key.
type AzureUploader struct {
	client *azblob.Client
}

// NewAzureUploader creates an uploader for the given storage account.
func NewAzureUploader(account, key string) (*AzureUploader, error) {
	if account == "" || key == "" {
		return nil, fmt.Errorf("Azure export needs CATGRAPH_AZURE_ACCOUNT and CATGRAPH_AZURE_KEY")
	}
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", account)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzureUploader{client: client}, nil
}

// Put uploads data as container/key.
func (u *AzureUploader) Put(ctx context.Context, container, key string, data []byte) error {
	ct := contentType(key)
	_, err := u.client.UploadBuffer(ctx, container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return fmt.Errorf("upload %q/%q: %w", container, key, err)
	}
	return nil
}
