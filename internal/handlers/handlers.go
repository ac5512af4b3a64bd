// Package handlers exposes the bridge operations over HTTP for local
// development and smoke testing. Production traffic goes through the
// Lambda entrypoints, not this facade.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/dispatcher"
	"spapi-bridge/internal/spapi"
)

// TokenStore is the credential vault's write side
type TokenStore interface {
	Put(ctx context.Context, sellerID, token string) error
}

// DocumentStore stores report documents and mints download links
type DocumentStore interface {
	Store(ctx context.Context, doc *spapi.ReportDocument, reportType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// Dispatch routes one raw notification body
type Dispatch interface {
	Dispatch(ctx context.Context, msg dispatcher.Message) dispatcher.Result
}

// Handlers serves the dev facade
type Handlers struct {
	tokens    TokenStore
	documents DocumentStore
	dispatch  Dispatch
	log       logging.Logger
}

// New creates the handler set
func New(tokens TokenStore, documents DocumentStore, dispatch Dispatch, log logging.Logger) *Handlers {
	return &Handlers{tokens: tokens, documents: documents, dispatch: dispatch, log: log}
}

// Register mounts all routes on the router
func (h *Handlers) Register(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sellers/{sellerId}/credentials", h.StoreToken).Methods("PUT")
	api.HandleFunc("/notifications", h.DispatchNotification).Methods("POST")
	api.HandleFunc("/documents", h.StoreDocument).Methods("POST")
	api.HandleFunc("/documents/presign", h.PresignDocument).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

type storeTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// StoreToken writes a seller's refresh token into the vault. The response
// never echoes the token.
func (h *Handlers) StoreToken(w http.ResponseWriter, r *http.Request) {
	sellerID := mux.Vars(r)["sellerId"]

	var req storeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.MalformedInputError("invalid JSON body", err))
		return
	}

	if err := h.tokens.Put(r.Context(), sellerID, req.RefreshToken); err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("Refresh token stored", logging.String("seller_id", sellerID))
	writeJSON(w, http.StatusOK, map[string]interface{}{"sellerId": sellerID, "stored": true})
}

// DispatchNotification feeds one raw notification body through the
// dispatcher and reports the outcome.
func (h *Handlers) DispatchNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errors.MalformedInputError("reading request body failed", err))
		return
	}

	result := h.dispatch.Dispatch(r.Context(), dispatcher.Message{ID: "http", Body: string(body)})
	if result.Err != nil {
		writeError(w, result.Err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":       string(result.Outcome),
		"executionName": result.ExecutionName,
	})
}

type storeDocumentRequest struct {
	ReportType     string               `json:"reportType"`
	ReportDocument spapi.ReportDocument `json:"reportDocument"`
}

// StoreDocument copies a report document into the destination bucket
func (h *Handlers) StoreDocument(w http.ResponseWriter, r *http.Request) {
	var req storeDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.MalformedInputError("invalid JSON body", err))
		return
	}

	key, err := h.documents.Store(r.Context(), &req.ReportDocument, req.ReportType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"objectKey": key})
}

// PresignDocument mints a download link for a stored document
func (h *Handlers) PresignDocument(w http.ResponseWriter, r *http.Request) {
	url, err := h.documents.PresignGet(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"presignedUrl": url})
}

// HealthCheck reports liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// statusFor maps error types to HTTP status codes
func statusFor(err error) int {
	switch errors.GetType(err) {
	case errors.ErrTypeInvalidArgument, errors.ErrTypeMalformedInput:
		return http.StatusBadRequest
	case errors.ErrTypeNotFound:
		return http.StatusNotFound
	case errors.ErrTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
