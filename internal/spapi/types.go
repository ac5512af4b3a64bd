// Package spapi defines the boundary of the Selling Partner API as this
// bridge sees it: wire shapes for notifications and report documents, the
// closed enumerations the API publishes, and the Login with Amazon
// constants. The generated API client, its token exchange, and its
// retry behavior all live outside this module.
package spapi

import (
	"encoding/json"
	"time"
)

// LWAEndpoint is the Login with Amazon token endpoint
const LWAEndpoint = "https://api.amazon.com/auth/o2/token"

// ScopeNotifications is the LWA scope used for grantless notification operations
const ScopeNotifications = "sellingpartnerapi::notifications"

// NotificationPayloadVersion is the payload version requested when subscribing
const NotificationPayloadVersion = "1.0"

// NotificationTypeReportProcessingFinished identifies terminal report events
const NotificationTypeReportProcessingFinished = "REPORT_PROCESSING_FINISHED"

// validSQSNotificationTypes is the set of notification types that may be
// delivered to an SQS destination.
var validSQSNotificationTypes = map[string]struct{}{
	"ACCOUNT_STATUS_CHANGED":       {},
	"ANY_OFFER_CHANGED":            {},
	"B2B_ANY_OFFER_CHANGED":        {},
	"FBA_OUTBOUND_SHIPMENT_STATUS": {},
	"FEE_PROMOTION":                {},
	"FEED_PROCESSING_FINISHED":     {},
	"FULFILLMENT_ORDER_STATUS":     {},
	"MFN_ORDER_STATUS_CHANGE":      {},
	NotificationTypeReportProcessingFinished: {},
}

// ValidNotificationType reports whether t can be subscribed to an SQS destination
func ValidNotificationType(t string) bool {
	_, ok := validSQSNotificationTypes[t]
	return ok
}

// ProcessingStatus is a report processing status published by the API
type ProcessingStatus string

const (
	// StatusInQueue means the report request is waiting to be processed
	StatusInQueue ProcessingStatus = "IN_QUEUE"
	// StatusInProgress means the report is being generated
	StatusInProgress ProcessingStatus = "IN_PROGRESS"
	// StatusDone means the report finished and a document is available
	StatusDone ProcessingStatus = "DONE"
	// StatusCancelled means the report was cancelled before completion
	StatusCancelled ProcessingStatus = "CANCELLED"
	// StatusFatal means report generation failed permanently
	StatusFatal ProcessingStatus = "FATAL"
)

// Terminal reports whether no further status transition can occur
func (s ProcessingStatus) Terminal() bool {
	switch s {
	case StatusDone, StatusCancelled, StatusFatal:
		return true
	default:
		return false
	}
}

// Notification is the outer envelope of an SP-API notification message.
// Payload stays raw until the notification type is known; unknown fields
// anywhere in the message are ignored.
type Notification struct {
	NotificationType     string          `json:"notificationType"`
	EventTime            time.Time       `json:"eventTime"`
	Payload              json.RawMessage `json:"payload"`
	NotificationMetadata json.RawMessage `json:"notificationMetadata"`
}

// ReportProcessingFinished is the typed payload of a
// REPORT_PROCESSING_FINISHED notification.
type ReportProcessingFinished struct {
	SellerID         string           `json:"sellerId"`
	ReportID         string           `json:"reportId"`
	ReportType       string           `json:"reportType"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	ReportDocumentID string           `json:"reportDocumentId"`
}

// reportPayload is the one level of nesting the API wraps the typed
// payload in.
type reportPayload struct {
	ReportProcessingFinishedNotification *ReportProcessingFinished `json:"reportProcessingFinishedNotification"`
}

// DecodeReportProcessingFinished extracts the typed payload from a
// notification's raw payload. A missing or empty payload object is a
// schema violation, not an absent optional.
func DecodeReportProcessingFinished(payload json.RawMessage) (*ReportProcessingFinished, error) {
	var p reportPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if p.ReportProcessingFinishedNotification == nil {
		// Older payload versions place the fields directly on the payload object.
		var direct ReportProcessingFinished
		if err := json.Unmarshal(payload, &direct); err != nil {
			return nil, err
		}
		return &direct, nil
	}
	return p.ReportProcessingFinishedNotification, nil
}

// CreateReportSpecification is the request shape for report creation
type CreateReportSpecification struct {
	ReportType     string            `json:"reportType"`
	MarketplaceIDs []string          `json:"marketplaceIds"`
	DataStartTime  *time.Time        `json:"dataStartTime,omitempty"`
	DataEndTime    *time.Time        `json:"dataEndTime,omitempty"`
	ReportOptions  map[string]string `json:"reportOptions,omitempty"`
}

// ReportDocument describes a finished report document
type ReportDocument struct {
	ReportDocumentID     string `json:"reportDocumentId"`
	URL                  string `json:"url"`
	CompressionAlgorithm string `json:"compressionAlgorithm,omitempty"`
}
