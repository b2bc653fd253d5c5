// internal/repository/azure_store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/model"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBlobStore は Azure Blob Storage のコンテナにドキュメントを保存する BlobStore です。
// 版には ETag を使います。
type AzureBlobStore struct {
	client    *azblob.Client
	container string
}

func NewAzureBlobStore(cfg *config.AzureConfig) (*AzureBlobStore, error) {
	return newAzureBlobStore(cfg, nil)
}

func newAzureBlobStore(cfg *config.AzureConfig, clientOpts *azblob.ClientOptions) (*AzureBlobStore, error) {
	if cfg.Container == "" {
		return nil, errors.New("azure: container is required")
	}

	var (
		client *azblob.Client
		err    error
	)
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, clientOpts)
	case cfg.AccountURL != "":
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("azure: default credential: %w", credErr)
		}
		client, err = azblob.NewClient(cfg.AccountURL, cred, clientOpts)
	default:
		return nil, errors.New("azure: connection_string or account_url is required")
	}
	if err != nil {
		return nil, fmt.Errorf("azure: create client: %w", err)
	}
	return &AzureBlobStore{client: client, container: cfg.Container}, nil
}

func (s *AzureBlobStore) Get(ctx context.Context, name string) (*Blob, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read azure blob %s: %w", name, err)
	}

	b := &Blob{Data: data, Metadata: map[string]string{}}
	if resp.ETag != nil {
		b.Version = Version(*resp.ETag)
	}
	for k, v := range resp.Metadata {
		if v != nil {
			b.Metadata[fromAzureMetaKey(k)] = *v
		}
	}
	return b, nil
}

func (s *AzureBlobStore) Put(ctx context.Context, name string, data []byte, opts PutOptions) (Version, error) {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = contentTypeJSON
	}
	uploadOpts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
		Metadata:    make(map[string]*string, len(opts.Metadata)),
	}
	for k, v := range opts.Metadata {
		uploadOpts.Metadata[toAzureMetaKey(k)] = to.Ptr(v)
	}

	cond := &blob.ModifiedAccessConditions{}
	switch {
	case opts.IfAbsent:
		cond.IfNoneMatch = to.Ptr(azcore.ETagAny)
	case opts.IfMatch != "":
		cond.IfMatch = to.Ptr(azcore.ETag(opts.IfMatch))
	}
	if opts.Conditional() {
		uploadOpts.AccessConditions = &blob.AccessConditions{ModifiedAccessConditions: cond}
	}

	resp, err := s.client.UploadBuffer(ctx, s.container, name, data, uploadOpts)
	if err != nil {
		if bloberror.HasCode(err, bloberror.ConditionNotMet, bloberror.BlobAlreadyExists) {
			return "", fmt.Errorf("azure put %s: %w", name, model.ErrConflict)
		}
		// If-Match 付きで Blob が存在しない場合
		if opts.IfMatch != "" && bloberror.HasCode(err, bloberror.BlobNotFound) {
			return "", fmt.Errorf("azure put %s: %w", name, model.ErrConflict)
		}
		return "", err
	}
	if resp.ETag == nil {
		return "", nil
	}
	return Version(*resp.ETag), nil
}

func (s *AzureBlobStore) Ping(ctx context.Context) error {
	_, err := s.client.ServiceClient().NewContainerClient(s.container).GetProperties(ctx, nil)
	return err
}

// Azure のメタデータ名にはハイフンが使えないため、保存時はアンダースコアに置き換えます。
func toAzureMetaKey(k string) string   { return strings.ReplaceAll(k, "-", "_") }
func fromAzureMetaKey(k string) string { return strings.ReplaceAll(strings.ToLower(k), "_", "-") }
