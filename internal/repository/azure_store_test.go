package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go_4_review_keep/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const azuriteConnectionString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

type fakeAzureBlob struct {
	data        []byte
	contentType string
	metadata    map[string]string
	etag        string
}

// fakeAzureTransport は Blob の取得と単一アップロード、コンテナのプロパティ取得だけを実装したトランスポートです。
type fakeAzureTransport struct {
	mu        sync.Mutex
	container string
	blobs     map[string]*fakeAzureBlob
	seq       int
	lastPut   http.Header
}

func newFakeAzureStore(t *testing.T) (*AzureBlobStore, *fakeAzureTransport) {
	t.Helper()
	fake := &fakeAzureTransport{container: "reviews", blobs: map[string]*fakeAzureBlob{}}
	store, err := newAzureBlobStore(&config.AzureConfig{
		Container:        "reviews",
		ConnectionString: azuriteConnectionString,
	}, &azblob.ClientOptions{ClientOptions: azcore.ClientOptions{Transport: fake}})
	require.NoError(t, err)
	return store, fake
}

func (f *fakeAzureTransport) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(req.URL.Path, "/devstoreaccount1/")
	container, name, _ := strings.Cut(path, "/")
	if container != f.container {
		return azureErrorResponse(req, http.StatusNotFound, "ContainerNotFound"), nil
	}
	if name == "" {
		if req.Method == http.MethodGet && req.URL.Query().Get("restype") == "container" {
			h := http.Header{}
			h.Set("ETag", `"0x8DCONTAINER"`)
			h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
			return azureResponse(req, http.StatusOK, h, nil), nil
		}
		return azureErrorResponse(req, http.StatusBadRequest, "UnsupportedHttpVerb"), nil
	}

	switch req.Method {
	case http.MethodGet:
		return f.download(req, name), nil
	case http.MethodPut:
		return f.upload(req, name)
	}
	return azureErrorResponse(req, http.StatusBadRequest, "UnsupportedHttpVerb"), nil
}

func (f *fakeAzureTransport) download(req *http.Request, name string) *http.Response {
	b, ok := f.blobs[name]
	if !ok {
		return azureErrorResponse(req, http.StatusNotFound, "BlobNotFound")
	}
	h := http.Header{}
	h.Set("ETag", b.etag)
	h.Set("Content-Type", b.contentType)
	h.Set("Content-Length", fmt.Sprint(len(b.data)))
	h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	h.Set("x-ms-blob-type", "BlockBlob")
	for k, v := range b.metadata {
		h.Set("x-ms-meta-"+k, v)
	}
	return azureResponse(req, http.StatusOK, h, b.data)
}

func (f *fakeAzureTransport) upload(req *http.Request, name string) (*http.Response, error) {
	f.lastPut = req.Header.Clone()

	var data []byte
	if req.Body != nil {
		var err error
		if data, err = io.ReadAll(req.Body); err != nil {
			return nil, err
		}
	}

	current, exists := f.blobs[name]
	if headerValue(req.Header, "If-None-Match") == "*" && exists {
		return azureErrorResponse(req, http.StatusConflict, "BlobAlreadyExists"), nil
	}
	if ifMatch := headerValue(req.Header, "If-Match"); ifMatch != "" {
		if !exists {
			return azureErrorResponse(req, http.StatusNotFound, "BlobNotFound"), nil
		}
		if ifMatch != current.etag {
			return azureErrorResponse(req, http.StatusPreconditionFailed, "ConditionNotMet"), nil
		}
	}

	metadata := map[string]string{}
	for k, v := range req.Header {
		if len(k) > len("x-ms-meta-") && strings.EqualFold(k[:len("x-ms-meta-")], "x-ms-meta-") && len(v) > 0 {
			metadata[strings.ToLower(k[len("x-ms-meta-"):])] = v[0]
		}
	}

	f.seq++
	b := &fakeAzureBlob{
		data:        data,
		contentType: headerValue(req.Header, "x-ms-blob-content-type"),
		metadata:    metadata,
		etag:        fmt.Sprintf(`"0x8DC%08X"`, f.seq),
	}
	f.blobs[name] = b

	h := http.Header{}
	h.Set("ETag", b.etag)
	h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	return azureResponse(req, http.StatusCreated, h, nil), nil
}

// headerValue は大文字小文字を区別せずにヘッダーを取り出します。
func headerValue(h http.Header, key string) string {
	for k, v := range h {
		if strings.EqualFold(k, key) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func azureResponse(req *http.Request, status int, h http.Header, body []byte) *http.Response {
	h.Set("x-ms-request-id", "00000000-0000-0000-0000-000000000000")
	h.Set("x-ms-version", "2023-11-03")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

func azureErrorResponse(req *http.Request, status int, code string) *http.Response {
	h := http.Header{}
	h.Set("x-ms-error-code", code)
	h.Set("Content-Type", "application/xml")
	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
	return azureResponse(req, status, h, []byte(body))
}

func TestAzureBlobStore(t *testing.T) {
	runBlobStoreContract(t, func(t *testing.T) BlobStore {
		store, _ := newFakeAzureStore(t)
		return store
	})
}

func TestAzureBlobStore_RequestHeaders(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeAzureStore(t)

	v1, err := store.Put(ctx, "review.json", []byte(`[]`), PutOptions{
		IfAbsent: true,
		Metadata: map[string]string{MetaTotalReviews: "0"},
	})
	require.NoError(t, err)
	assert.Equal(t, "*", headerValue(fake.lastPut, "If-None-Match"))
	assert.Equal(t, "application/json", headerValue(fake.lastPut, "x-ms-blob-content-type"))
	// メタデータ名はアンダースコアで保存される
	assert.Equal(t, "0", fake.blobs["review.json"].metadata["total_reviews"])

	_, err = store.Put(ctx, "review.json", []byte(`["a"]`), PutOptions{IfMatch: v1})
	require.NoError(t, err)
	assert.Equal(t, string(v1), headerValue(fake.lastPut, "If-Match"))

	_, err = store.Put(ctx, "review.json", []byte(`["b"]`), PutOptions{})
	require.NoError(t, err)
	assert.Empty(t, headerValue(fake.lastPut, "If-Match"))
	assert.Empty(t, headerValue(fake.lastPut, "If-None-Match"))
}
