package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/dispatcher"
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

type fakeTokens struct {
	stored map[string]string
	err    error
}

func (f *fakeTokens) Put(_ context.Context, sellerID, token string) error {
	if f.err != nil {
		return f.err
	}
	if f.stored == nil {
		f.stored = make(map[string]string)
	}
	f.stored[sellerID] = token
	return nil
}

type fakeDocuments struct {
	storeErr   error
	presignErr error
	storedType string
}

func (f *fakeDocuments) Store(_ context.Context, _ *spapi.ReportDocument, reportType string) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	f.storedType = reportType
	return reportType + "/key", nil
}

func (f *fakeDocuments) PresignGet(_ context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	if key == "" {
		return "", errors.InvalidArgumentError("object key is required")
	}
	return "https://signed/" + key, nil
}

type fakeDispatch struct {
	result dispatcher.Result
}

func (f *fakeDispatch) Dispatch(_ context.Context, msg dispatcher.Message) dispatcher.Result {
	result := f.result
	result.MessageID = msg.ID
	return result
}

func newTestRouter(tokens *fakeTokens, docs *fakeDocuments, dispatch *fakeDispatch) *mux.Router {
	router := mux.NewRouter()
	New(tokens, docs, dispatch, nopLogger{}).Register(router)
	return router
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStoreToken_NeverEchoesToken(t *testing.T) {
	tokens := &fakeTokens{}
	router := newTestRouter(tokens, &fakeDocuments{}, &fakeDispatch{})

	rec := doRequest(router, http.MethodPut, "/api/sellers/A2SELLER/credentials",
		`{"refreshToken":"Atzr|secret-token"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Atzr|secret-token", tokens.stored["A2SELLER"])
	assert.NotContains(t, rec.Body.String(), "secret-token")
}

func TestStoreToken_BadJSON(t *testing.T) {
	router := newTestRouter(&fakeTokens{}, &fakeDocuments{}, &fakeDispatch{})

	rec := doRequest(router, http.MethodPut, "/api/sellers/A2SELLER/credentials", "{nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreToken_VaultFailureIs500(t *testing.T) {
	tokens := &fakeTokens{err: errors.CryptoError("sealing failed", fmt.Errorf("kms down"))}
	router := newTestRouter(tokens, &fakeDocuments{}, &fakeDispatch{})

	rec := doRequest(router, http.MethodPut, "/api/sellers/A2SELLER/credentials",
		`{"refreshToken":"t"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDispatchNotification_ReportsOutcome(t *testing.T) {
	dispatch := &fakeDispatch{result: dispatcher.Result{
		Outcome:       dispatcher.OutcomeRouted,
		ExecutionName: "A2SELLER-R1-abc",
	}}
	router := newTestRouter(&fakeTokens{}, &fakeDocuments{}, dispatch)

	rec := doRequest(router, http.MethodPost, "/api/notifications", `{"notificationType":"X"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "routed", body["outcome"])
	assert.Equal(t, "A2SELLER-R1-abc", body["executionName"])
}

func TestDispatchNotification_RejectedIs400(t *testing.T) {
	dispatch := &fakeDispatch{result: dispatcher.Result{
		Outcome: dispatcher.OutcomeRejected,
		Err:     errors.MalformedInputError("unparseable notification body", fmt.Errorf("bad json")),
	}}
	router := newTestRouter(&fakeTokens{}, &fakeDocuments{}, dispatch)

	rec := doRequest(router, http.MethodPost, "/api/notifications", "{nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreDocument(t *testing.T) {
	docs := &fakeDocuments{}
	router := newTestRouter(&fakeTokens{}, docs, &fakeDispatch{})

	rec := doRequest(router, http.MethodPost, "/api/documents",
		`{"reportType":"TYPE","reportDocument":{"reportDocumentId":"D1","url":"https://x"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "TYPE", docs.storedType)
	assert.Contains(t, rec.Body.String(), "TYPE/key")
}

func TestPresignDocument(t *testing.T) {
	router := newTestRouter(&fakeTokens{}, &fakeDocuments{}, &fakeDispatch{})

	rec := doRequest(router, http.MethodGet, "/api/documents/presign?key=TYPE/key", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://signed/TYPE/key")

	rec = doRequest(router, http.MethodGet, "/api/documents/presign", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&fakeTokens{}, &fakeDocuments{}, &fakeDispatch{})

	rec := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
