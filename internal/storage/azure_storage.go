package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "go-dirtycam/internal/errors"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// AzureSource downloads images from Azure Blob Storage
type AzureSource struct {
	client *azblob.Client
}

// NewAzureSource creates a blob source for accountName. With an empty key
// the client is anonymous and can only read public containers.
func NewAzureSource(accountName, accountKey string) (*AzureSource, error) {
	serviceURL := fmt.Sprintf("https://%s%s/", accountName, azureBlobHostSuffix)

	if accountKey == "" {
		client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create anonymous blob client: %w", err)
		}
		return &AzureSource{client: client}, nil
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &AzureSource{client: client}, nil
}

// IsAzureBlobURL reports whether ref points at an Azure blob endpoint
func IsAzureBlobURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), azureBlobHostSuffix)
}

// ParseBlobURL splits a blob URL into its container and blob names
func ParseBlobURL(blobURL string) (container, blob string, err error) {
	parts, err := azblob.ParseURL(blobURL)
	if err != nil {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("invalid blob URL %q", blobURL), err)
	}
	if parts.ContainerName == "" || parts.BlobName == "" {
		return "", "", apperrors.NewValidationError(
			fmt.Sprintf("blob URL %q must name a container and a blob", blobURL), nil)
	}
	return parts.ContainerName, parts.BlobName, nil
}

// Load downloads and decodes the blob at blobURL
func (s *AzureSource) Load(ctx context.Context, blobURL string) (image.Image, error) {
	container, blob, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		if cerr := contextError(ctx, blobURL); cerr != nil {
			return nil, cerr
		}
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("blob %s/%s not found", container, blob), err)
		}
		return nil, apperrors.NewNetworkError(fmt.Sprintf("download of %s/%s failed", container, blob), err)
	}
	defer resp.Body.Close()

	return Decode(resp.Body, blobURL)
}
