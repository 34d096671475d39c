// Package storage persists cropped figure images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/spherical/figure-extractor/internal/config"
	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/observability"
)

// New builds the store selected by cfg.Driver.
func New(cfg config.StorageConfig, logger *observability.Logger) (domain.ImageStore, error) {
	switch cfg.Driver {
	case "azure":
		return NewBlobStore(cfg.ConnectionString, cfg.Container, logger)
	case "local":
		return NewLocalStore(cfg.LocalDir), nil
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown storage driver %q", cfg.Driver), nil)
	}
}

// uploader is the part of *azblob.Client the store uses.
type uploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	URL() string
}

// BlobStore writes figures to an Azure Blob Storage container.
type BlobStore struct {
	client    uploader
	container string
	logger    *observability.Logger
}

var _ domain.ImageStore = (*BlobStore)(nil)

// NewBlobStore connects with a storage account connection string.
func NewBlobStore(connectionString, container string, logger *observability.Logger) (*BlobStore, error) {
	if connectionString == "" || container == "" {
		return nil, domain.ConfigError("blob storage needs a connection string and a container", nil)
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, domain.ConfigError("invalid storage connection string", err)
	}
	return newBlobStore(client, container, logger), nil
}

func newBlobStore(client uploader, container string, logger *observability.Logger) *BlobStore {
	if logger == nil {
		logger = observability.Nop()
	}
	return &BlobStore{client: client, container: container, logger: logger.WithOperation("store")}
}

// Save uploads data to dir/name, overwriting any existing blob, and attaches
// meta as blob metadata.
func (s *BlobStore) Save(ctx context.Context, dir, name string, data []byte, meta domain.ImageMetadata) (string, error) {
	blobName := path.Join(dir, name)

	_, err := s.client.UploadBuffer(ctx, s.container, blobName, data, &azblob.UploadBufferOptions{
		Metadata: blobMetadata(meta.Map()),
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr("image/png"),
		},
	})
	if err != nil {
		return "", classifyBlobError(blobName, err)
	}

	location, err := url.JoinPath(s.client.URL(), s.container, blobName)
	if err != nil {
		location = blobName
	}
	s.logger.Debug().Str("blob", blobName).Int("bytes", len(data)).Msg("figure uploaded")
	return location, nil
}

func classifyBlobError(blobName string, err error) error {
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return domain.ConfigError("storage container does not exist", err)
	}
	msg := fmt.Sprintf("upload %s", blobName)
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		msg = fmt.Sprintf("%s: %s (HTTP %d)", msg, respErr.ErrorCode, respErr.StatusCode)
	}
	return domain.StorageError(msg, err)
}

// blobMetadata converts metadata to the SDK shape. Metadata travels as HTTP
// headers, so values outside printable ASCII are percent-encoded.
func blobMetadata(m map[string]string) map[string]*string {
	out := make(map[string]*string, len(m))
	for k, v := range m {
		out[k] = to.Ptr(EncodeMetadataValue(v))
	}
	return out
}

// EncodeMetadataValue percent-encodes v when it contains characters that are
// not allowed in an HTTP header value.
func EncodeMetadataValue(v string) string {
	if strings.IndexFunc(v, func(r rune) bool { return r > unicode.MaxASCII || !unicode.IsPrint(r) }) < 0 {
		return v
	}
	return url.PathEscape(v)
}
