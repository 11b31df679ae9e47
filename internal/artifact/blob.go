package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// Sink receives a copy of every artifact written.
type Sink interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
}

// blobUploader is the part of [*azblob.Client] BlobSink uses.
type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// BlobSink uploads artifacts to an Azure Storage container.
type BlobSink struct {
	client    blobUploader
	container string
	prefix    string
}

// NewBlobSink connects to accountURL with cred. A nil cred uses
// [azidentity.NewDefaultAzureCredential].
func NewBlobSink(accountURL, container, prefix string, cred azcore.TokenCredential) (*BlobSink, error) {
	if accountURL == "" || container == "" {
		return nil, errors.New("blob sink needs an account URL and a container")
	}

	if cred == nil {
		var err error
		if cred, err = azidentity.NewDefaultAzureCredential(nil); err != nil {
			return nil, fmt.Errorf("failed to get Azure credential: %w", err)
		}
	}

	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobSink{client: client, container: container, prefix: prefix}, nil
}

// Upload stores data as <prefix>/<name>.
func (s *BlobSink) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	blobName := name
	if s.prefix != "" {
		blobName = path.Join(s.prefix, name)
	}

	_, err := s.client.UploadBuffer(ctx, s.container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return fmt.Errorf("upload %s to container %s: %w", blobName, s.container, err)
	}
	return nil
}
