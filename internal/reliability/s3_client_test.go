package reliability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/config"
)

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>finmate</Name>
  <Prefix>backups/finmate-backup-</Prefix>
  <KeyCount>1</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>backups/finmate-backup-2024-06-01-040000.tar.gz</Key>
    <LastModified>2024-06-01T04:00:00.000Z</LastModified>
    <Size>42</Size>
  </Contents>
</ListBucketResult>`

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newFakeS3(t *testing.T) (*S3Client, func() []recordedRequest) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{r.Method, r.URL.Path, string(body)})
		mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, listResponse)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(ts.Close)

	client, err := NewS3Client(context.Background(), config.BackupConfig{
		Bucket:    "finmate",
		Endpoint:  ts.URL,
		Region:    "auto",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "/backups/",
	}, zerolog.Nop())
	require.NoError(t, err)

	return client, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestS3Client_UploadUsesPrefixAndPathStyle(t *testing.T) {
	client, requests := newFakeS3(t)

	require.NoError(t, client.Upload(context.Background(), "finmate-backup-x.tar.gz", strings.NewReader("archive")))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/finmate/backups/finmate-backup-x.tar.gz", reqs[0].path)
}

func TestS3Client_ListStripsPrefix(t *testing.T) {
	client, _ := newFakeS3(t)

	objects, err := client.List(context.Background(), "finmate-backup-")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "finmate-backup-2024-06-01-040000.tar.gz", objects[0].Key)
	assert.Equal(t, int64(42), objects[0].Size)
	assert.Equal(t, 2024, objects[0].LastModified.Year())
}

func TestS3Client_Delete(t *testing.T) {
	client, requests := newFakeS3(t)

	require.NoError(t, client.Delete(context.Background(), "old.tar.gz"))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].method)
	assert.Equal(t, "/finmate/backups/old.tar.gz", reqs[0].path)
}
