package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
)

// blobDownloader is the part of *azblob.Client the supplier needs.
type blobDownloader interface {
	DownloadStream(ctx context.Context, containerName string, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

// AzureBlobSupplier downloads a dataset stored as a blob in Azure Storage.
type AzureBlobSupplier struct {
	client    blobDownloader
	container string
	blob      string
}

// NewAzureBlobSupplier authenticates with a shared account key.
func NewAzureBlobSupplier(accountName, accountKey, container, blob string) (*AzureBlobSupplier, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError("invalid azure credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError("cannot create azure blob client", err)
	}

	return &AzureBlobSupplier{client: client, container: container, blob: blob}, nil
}

func (s *AzureBlobSupplier) Bytes(ctx context.Context) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.blob, nil)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError(fmt.Sprintf("download of %s failed", s), err)
	}

	body := resp.Body
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError(fmt.Sprintf("reading %s failed", s), err)
	}
	return data, nil
}

func (s *AzureBlobSupplier) String() string {
	return fmt.Sprintf("azure:%s/%s", s.container, s.blob)
}
