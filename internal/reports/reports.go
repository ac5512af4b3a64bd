// Package reports orchestrates the report lifecycle against the Selling
// Partner API: submitting report requests, registering notification
// subscriptions, and retrieving finished documents. The package owns no
// HTTP client; it builds authorization sessions and hands them to a
// caller-provided client factory.
package reports

import (
	"context"

	"github.com/google/uuid"

	"spapi-bridge/internal/authz"
	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/ledger"
	"spapi-bridge/internal/regions"
	"spapi-bridge/internal/spapi"
)

// ReportsAPI is the slice of the upstream Reports API this service calls
type ReportsAPI interface {
	CreateReport(ctx context.Context, spec spapi.CreateReportSpecification) (string, error)
	GetReportDocument(ctx context.Context, reportDocumentID string) (*spapi.ReportDocument, error)
}

// NotificationsAPI is the slice of the upstream Notifications API this
// service calls. CreateDestination is a grantless operation;
// CreateSubscription acts on behalf of a seller.
type NotificationsAPI interface {
	CreateDestination(ctx context.Context, name, queueARN string) (string, error)
	CreateSubscription(ctx context.Context, notificationType, destinationID, payloadVersion string) (string, error)
}

// ClientFactory builds per-session API clients. Sessions are ephemeral,
// so clients must not be cached across calls.
type ClientFactory interface {
	Reports(session *authz.Session) ReportsAPI
	Notifications(session *authz.Session) NotificationsAPI
}

// SessionBuilder is the authorization boundary (the authz broker)
type SessionBuilder interface {
	BuildSession(ctx context.Context, regionCode, sellerID string, mode authz.Mode) (*authz.Session, error)
}

// RegionLedger records and recovers report-to-region associations
type RegionLedger interface {
	Record(ctx context.Context, reportID, sellerID string, region regions.Code) error
	LookupRegion(ctx context.Context, reportID, sellerID string) (regions.Code, error)
}

var (
	_ SessionBuilder = (*authz.Broker)(nil)
	_ RegionLedger   = (*ledger.Ledger)(nil)
)

// CreateRequest asks for a new report on a seller's behalf
type CreateRequest struct {
	SellerID   string                          `json:"sellerId"`
	RegionCode string                          `json:"regionCode"`
	Spec       spapi.CreateReportSpecification `json:"reportSpecification"`
}

// SubscribeRequest registers a notification subscription for a seller
type SubscribeRequest struct {
	SellerID         string `json:"sellerId"`
	RegionCode       string `json:"regionCode"`
	NotificationType string `json:"notificationType"`
}

// Subscription is the result of a successful Subscribe call
type Subscription struct {
	DestinationID  string `json:"destinationId"`
	SubscriptionID string `json:"subscriptionId"`
}

// Service orchestrates report operations
type Service struct {
	sessions SessionBuilder
	ledger   RegionLedger
	clients  ClientFactory
	queueARN string
	log      logging.Logger
}

// New creates a Service. queueARN is the SQS destination notifications
// are delivered to.
func New(sessions SessionBuilder, regionLedger RegionLedger, clients ClientFactory, queueARN string, log logging.Logger) *Service {
	return &Service{
		sessions: sessions,
		ledger:   regionLedger,
		clients:  clients,
		queueARN: queueARN,
		log:      log,
	}
}

// Create submits a report request and records its region association.
// The ledger write happens after the upstream accepts the request; if it
// fails, the report exists upstream but can never be routed, so the
// orphaned id is logged before the error propagates.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	if req.SellerID == "" {
		return "", errors.InvalidArgumentError("sellerId is required")
	}
	if req.Spec.ReportType == "" {
		return "", errors.InvalidArgumentError("reportType is required")
	}
	if len(req.Spec.MarketplaceIDs) == 0 {
		return "", errors.InvalidArgumentError("at least one marketplaceId is required")
	}

	session, err := s.sessions.BuildSession(ctx, req.RegionCode, req.SellerID, authz.ModeAuthorized)
	if err != nil {
		return "", err
	}
	defer session.Wipe()

	reportID, err := s.clients.Reports(session).CreateReport(ctx, req.Spec)
	if err != nil {
		return "", errors.UpstreamError("creating report failed", err).
			WithContext("seller_id", req.SellerID).
			WithContext("report_type", req.Spec.ReportType)
	}

	if err := s.ledger.Record(ctx, reportID, req.SellerID, regions.Code(req.RegionCode)); err != nil {
		s.log.Error("Report created upstream but region record failed; report is orphaned", err,
			logging.String("report_id", reportID),
			logging.String("seller_id", req.SellerID),
			logging.String("region_code", req.RegionCode))
		return "", err
	}

	s.log.Info("Report created",
		logging.String("report_id", reportID),
		logging.String("seller_id", req.SellerID),
		logging.String("report_type", req.Spec.ReportType),
		logging.String("region_code", req.RegionCode))
	return reportID, nil
}

// RetrieveDocument recovers the report's region from the ledger, then
// fetches the document descriptor on the seller's behalf.
func (s *Service) RetrieveDocument(ctx context.Context, sellerID, reportID, reportDocumentID string) (*spapi.ReportDocument, error) {
	if sellerID == "" || reportID == "" || reportDocumentID == "" {
		return nil, errors.InvalidArgumentError("sellerId, reportId and reportDocumentId are required")
	}

	region, err := s.ledger.LookupRegion(ctx, reportID, sellerID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.BuildSession(ctx, string(region), sellerID, authz.ModeAuthorized)
	if err != nil {
		return nil, err
	}
	defer session.Wipe()

	doc, err := s.clients.Reports(session).GetReportDocument(ctx, reportDocumentID)
	if err != nil {
		return nil, errors.UpstreamError("fetching report document failed", err).
			WithContext("report_document_id", reportDocumentID).
			WithContext("seller_id", sellerID)
	}

	return doc, nil
}

// Subscribe creates a uniquely named SQS destination with a grantless
// session, then subscribes the seller to the notification type through
// it. Destinations are account-level, so the name carries a fresh UUID to
// avoid collisions across sellers.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) (*Subscription, error) {
	if req.SellerID == "" {
		return nil, errors.InvalidArgumentError("sellerId is required")
	}
	if !spapi.ValidNotificationType(req.NotificationType) {
		return nil, errors.InvalidArgumentError("notificationType is not deliverable to an SQS destination")
	}

	grantless, err := s.sessions.BuildSession(ctx, req.RegionCode, "", authz.ModeGrantless)
	if err != nil {
		return nil, err
	}
	defer grantless.Wipe()

	destinationID, err := s.clients.Notifications(grantless).CreateDestination(ctx, uuid.NewString(), s.queueARN)
	if err != nil {
		return nil, errors.UpstreamError("creating notification destination failed", err).
			WithContext("notification_type", req.NotificationType)
	}

	authorized, err := s.sessions.BuildSession(ctx, req.RegionCode, req.SellerID, authz.ModeAuthorized)
	if err != nil {
		return nil, err
	}
	defer authorized.Wipe()

	subscriptionID, err := s.clients.Notifications(authorized).CreateSubscription(ctx, req.NotificationType, destinationID, spapi.NotificationPayloadVersion)
	if err != nil {
		return nil, errors.UpstreamError("creating notification subscription failed", err).
			WithContext("notification_type", req.NotificationType).
			WithContext("seller_id", req.SellerID)
	}

	s.log.Info("Subscription created",
		logging.String("seller_id", req.SellerID),
		logging.String("notification_type", req.NotificationType),
		logging.String("destination_id", destinationID),
		logging.String("subscription_id", subscriptionID))

	return &Subscription{DestinationID: destinationID, SubscriptionID: subscriptionID}, nil
}
