// internal/repository/gcs_store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/model"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStore は Google Cloud Storage のオブジェクトとしてドキュメントを保存する BlobStore です。
// 版にはオブジェクトの generation を使います。
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, cfg *config.GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}

	// 読み込みも JSON API で行う
	opts := []option.ClientOption{storage.WithJSONReads()}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		// エミュレータ向け
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *GCSStore) Get(ctx context.Context, name string) (*Blob, error) {
	obj := s.client.Bucket(s.bucket).Object(name)
	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gcs object %s: %w", name, err)
	}
	blob := &Blob{
		Data:    data,
		Version: Version(strconv.FormatInt(r.Attrs.Generation, 10)),
	}

	// メタデータは読み込んだ generation のものを取得する。その間に上書きされていれば付けない
	attrs, err := obj.Generation(r.Attrs.Generation).Attrs(ctx)
	switch {
	case err == nil:
		blob.Metadata = attrs.Metadata
	case !errors.Is(err, storage.ErrObjectNotExist):
		return nil, fmt.Errorf("read gcs object attrs %s: %w", name, err)
	}
	return blob, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte, opts PutOptions) (Version, error) {
	obj := s.client.Bucket(s.bucket).Object(name)
	switch {
	case opts.IfAbsent:
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	case opts.IfMatch != "":
		gen, err := strconv.ParseInt(string(opts.IfMatch), 10, 64)
		if err != nil {
			return "", fmt.Errorf("gcs: invalid generation %q: %w", opts.IfMatch, err)
		}
		obj = obj.If(storage.Conditions{GenerationMatch: gen})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = opts.ContentType
	if w.ContentType == "" {
		w.ContentType = contentTypeJSON
	}
	w.Metadata = opts.Metadata

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", s.translateWriteError(name, err)
	}
	if err := w.Close(); err != nil {
		return "", s.translateWriteError(name, err)
	}
	return Version(strconv.FormatInt(w.Attrs().Generation, 10)), nil
}

func (s *GCSStore) translateWriteError(name string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("gcs put %s: %w", name, model.ErrConflict)
	}
	return err
}

func (s *GCSStore) Ping(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return err
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
