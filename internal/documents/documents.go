// Package documents moves finished report documents from the upstream
// API's short-lived download URLs into durable object storage, and mints
// presigned links for downstream consumers.
package documents

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/spapi"
)

// contentTypes maps the API's compression algorithms to the stored
// object's content type. An empty algorithm means an uncompressed
// tab-delimited document.
var contentTypes = map[string]string{
	"":     "text/plain",
	"GZIP": "application/x-gzip",
}

// S3API is the subset of the S3 client used for uploads
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignAPI mints presigned GET requests
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ S3API      = (*s3.Client)(nil)
	_ PresignAPI = (*s3.PresignClient)(nil)
)

// Storage downloads report documents and stores them in one bucket
type Storage struct {
	s3      S3API
	presign PresignAPI
	http    *http.Client
	bucket  string
	log     logging.Logger

	// newSuffix generates the unique object-key suffix, overridable in tests
	newSuffix func() string
}

// NewStorage creates a Storage over the given bucket. httpClient may be
// nil, in which case http.DefaultClient is used.
func NewStorage(s3Client S3API, presign PresignAPI, httpClient *http.Client, bucket string, log logging.Logger) *Storage {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Storage{
		s3:        s3Client,
		presign:   presign,
		http:      httpClient,
		bucket:    bucket,
		log:       log,
		newSuffix: uuid.NewString,
	}
}

// Store streams the document from its upstream URL into the bucket under
// {reportType}/{uuid} and returns the object key. The body is never
// buffered in full; it flows from the download response into the upload.
func (s *Storage) Store(ctx context.Context, doc *spapi.ReportDocument, reportType string) (string, error) {
	if doc == nil || doc.URL == "" {
		return "", errors.InvalidArgumentError("report document with a download URL is required")
	}
	if reportType == "" {
		return "", errors.InvalidArgumentError("reportType is required")
	}
	contentType, ok := contentTypes[doc.CompressionAlgorithm]
	if !ok {
		return "", errors.InvalidArgumentError(
			fmt.Sprintf("unsupported compression algorithm %q", doc.CompressionAlgorithm))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.URL, nil)
	if err != nil {
		return "", errors.InvalidArgumentError("report document URL is not valid")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.UpstreamError("downloading report document failed", err).
			WithContext("report_document_id", doc.ReportDocumentID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.UpstreamError(
			fmt.Sprintf("report document download returned status %d", resp.StatusCode), nil).
			WithContext("report_document_id", doc.ReportDocumentID)
	}

	key := fmt.Sprintf("%s/%s", reportType, s.newSuffix())
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        resp.Body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.UpstreamError("storing report document failed", err).
			WithContext("report_document_id", doc.ReportDocumentID).
			WithContext("object_key", key)
	}

	s.log.Info("Report document stored",
		logging.String("report_document_id", doc.ReportDocumentID),
		logging.String("object_key", key),
		logging.String("content_type", contentType))
	return key, nil
}

// presignExpiry bounds how long a minted download link stays valid
const presignExpiry = time.Hour

// PresignGet mints a presigned GET URL for a stored document
func (s *Storage) PresignGet(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.InvalidArgumentError("object key is required")
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = presignExpiry
	})
	if err != nil {
		return "", errors.UpstreamError("presigning document URL failed", err).
			WithContext("object_key", key)
	}

	return req.URL, nil
}
