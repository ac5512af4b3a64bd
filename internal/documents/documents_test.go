package documents

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/spapi"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...logging.Field)        {}
func (nopLogger) Info(string, ...logging.Field)         {}
func (nopLogger) Warn(string, ...logging.Field)         {}
func (nopLogger) Error(string, error, ...logging.Field) {}
func (l nopLogger) WithFields(...logging.Field) logging.Logger {
	return l
}

type putCall struct {
	bucket      string
	key         string
	contentType string
	body        string
}

type fakeS3 struct {
	puts []putCall
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, putCall{
		bucket:      aws.ToString(params.Bucket),
		key:         aws.ToString(params.Key),
		contentType: aws.ToString(params.ContentType),
		body:        string(body),
	})
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

type fakePresign struct {
	lastKey string
	err     error
}

func (f *fakePresign) PresignGetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.lastKey = aws.ToString(params.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3.amazonaws.com/" + f.lastKey + "?X-Amz-Signature=abc"}, nil
}

func newTestStorage(s3Client *fakeS3, presign *fakePresign) *Storage {
	storage := NewStorage(s3Client, presign, nil, "report-docs", nopLogger{})
	storage.newSuffix = func() string { return "fixed-suffix" }
	return storage
}

func TestStore_StreamsDownloadIntoBucket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "sku\tqty\nA\t3\n")
	}))
	defer server.Close()

	s3Client := &fakeS3{}
	storage := newTestStorage(s3Client, &fakePresign{})

	key, err := storage.Store(context.Background(), &spapi.ReportDocument{
		ReportDocumentID: "DOC-9",
		URL:              server.URL,
	}, "GET_MERCHANT_LISTINGS_ALL_DATA")
	require.NoError(t, err)
	assert.Equal(t, "GET_MERCHANT_LISTINGS_ALL_DATA/fixed-suffix", key)

	require.Len(t, s3Client.puts, 1)
	put := s3Client.puts[0]
	assert.Equal(t, "report-docs", put.bucket)
	assert.Equal(t, key, put.key)
	assert.Equal(t, "text/plain", put.contentType)
	assert.Equal(t, "sku\tqty\nA\t3\n", put.body)
}

func TestStore_GzipContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "compressed-bytes")
	}))
	defer server.Close()

	s3Client := &fakeS3{}
	storage := newTestStorage(s3Client, &fakePresign{})

	_, err := storage.Store(context.Background(), &spapi.ReportDocument{
		ReportDocumentID:     "DOC-9",
		URL:                  server.URL,
		CompressionAlgorithm: "GZIP",
	}, "GET_MERCHANT_LISTINGS_ALL_DATA")
	require.NoError(t, err)
	assert.Equal(t, "application/x-gzip", s3Client.puts[0].contentType)
}

func TestStore_UnknownCompressionRejectedBeforeDownload(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
	}))
	defer server.Close()

	storage := newTestStorage(&fakeS3{}, &fakePresign{})

	_, err := storage.Store(context.Background(), &spapi.ReportDocument{
		ReportDocumentID:     "DOC-9",
		URL:                  server.URL,
		CompressionAlgorithm: "ZSTD",
	}, "GET_MERCHANT_LISTINGS_ALL_DATA")
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidArgument))
	assert.Zero(t, requests)
}

func TestStore_DownloadFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s3Client := &fakeS3{}
	storage := newTestStorage(s3Client, &fakePresign{})

	_, err := storage.Store(context.Background(), &spapi.ReportDocument{
		ReportDocumentID: "DOC-9",
		URL:              server.URL,
	}, "GET_MERCHANT_LISTINGS_ALL_DATA")
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Empty(t, s3Client.puts)
}

func TestStore_MissingInputs(t *testing.T) {
	storage := newTestStorage(&fakeS3{}, &fakePresign{})

	_, err := storage.Store(context.Background(), nil, "TYPE")
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidArgument))

	_, err = storage.Store(context.Background(), &spapi.ReportDocument{URL: "https://example.com"}, "")
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidArgument))
}

func TestPresignGet_ReturnsSignedURL(t *testing.T) {
	presign := &fakePresign{}
	storage := newTestStorage(&fakeS3{}, presign)

	url, err := storage.PresignGet(context.Background(), "TYPE/abc")
	require.NoError(t, err)
	assert.Equal(t, "TYPE/abc", presign.lastKey)
	assert.True(t, strings.Contains(url, "X-Amz-Signature"))
}

func TestPresignGet_EmptyKeyRejected(t *testing.T) {
	storage := newTestStorage(&fakeS3{}, &fakePresign{})

	_, err := storage.PresignGet(context.Background(), "")
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidArgument))
}
