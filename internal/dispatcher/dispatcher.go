// Package dispatcher filters the inbound SP-API notification stream and
// starts one downstream retrieval workflow per terminal report event.
//
// Each message moves through Received -> Parsed -> {Skipped | Routed |
// Rejected} independently. Messages are untrusted input: a malformed body
// is rejected and logged without aborting its batch, and one message's
// routing failure never affects its siblings.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/spapi"
	"spapi-bridge/internal/workflow"
)

// Outcome is the terminal state of one message
type Outcome string

const (
	// OutcomeSkipped means the message was valid but not a terminal report event
	OutcomeSkipped Outcome = "skipped"
	// OutcomeRouted means exactly one workflow execution was started
	OutcomeRouted Outcome = "routed"
	// OutcomeRejected means the message could not be parsed or routed
	OutcomeRejected Outcome = "rejected"
)

// Message is one raw inbound queue message
type Message struct {
	ID   string
	Body string
}

// Result reports what happened to one message
type Result struct {
	MessageID     string
	Outcome       Outcome
	ExecutionName string
	ExecutionARN  string
	Err           error
}

// TriggerInput is the payload handed to the retrieval state machine. The
// notification payload is self-contained, so no ledger lookup happens
// here - the workflow's own steps recover the region.
type TriggerInput struct {
	SellerID         string `json:"SellerId"`
	ReportID         string `json:"ReportId"`
	ReportType       string `json:"ReportType"`
	ProcessingStatus string `json:"ProcessingStatus"`
	ReportDocumentID string `json:"ReportDocumentId"`
}

// Dispatcher routes terminal report notifications to the workflow engine
type Dispatcher struct {
	engine workflow.Engine
	log    logging.Logger

	// newSuffix generates the unique execution-name suffix. The same
	// notification redelivered by the queue therefore starts a second
	// execution rather than being deduplicated, matching the upstream
	// at-least-once delivery contract. Overridable in tests.
	newSuffix func() string
}

// New creates a Dispatcher
func New(engine workflow.Engine, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		engine:    engine,
		log:       log,
		newSuffix: uuid.NewString,
	}
}

// DispatchBatch processes each message independently and in order. It
// always returns one Result per message; it never aborts early.
func (d *Dispatcher) DispatchBatch(ctx context.Context, messages []Message) []Result {
	results := make([]Result, 0, len(messages))
	for _, msg := range messages {
		results = append(results, d.Dispatch(ctx, msg))
	}
	return results
}

// Dispatch runs one message through the parse/filter/route state machine
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Result {
	result := Result{MessageID: msg.ID}

	var notification spapi.Notification
	if err := json.Unmarshal([]byte(msg.Body), &notification); err != nil {
		result.Outcome = OutcomeRejected
		result.Err = errors.MalformedInputError("unparseable notification body", err).
			WithContext("message_id", msg.ID)
		d.log.Warn("Rejected malformed notification",
			logging.String("message_id", msg.ID),
			logging.Err(result.Err))
		return result
	}

	if notification.NotificationType != spapi.NotificationTypeReportProcessingFinished {
		result.Outcome = OutcomeSkipped
		d.log.Debug("Skipped notification of unrelated type",
			logging.String("message_id", msg.ID),
			logging.String("notification_type", notification.NotificationType))
		return result
	}

	payload, err := spapi.DecodeReportProcessingFinished(notification.Payload)
	if err != nil {
		result.Outcome = OutcomeRejected
		result.Err = errors.MalformedInputError("unparseable report payload", err).
			WithContext("message_id", msg.ID)
		d.log.Warn("Rejected notification with malformed payload",
			logging.String("message_id", msg.ID),
			logging.Err(result.Err))
		return result
	}

	// In-progress statuses are expected traffic, not errors.
	if !payload.ProcessingStatus.Terminal() {
		result.Outcome = OutcomeSkipped
		d.log.Debug("Skipped non-terminal report notification",
			logging.String("message_id", msg.ID),
			logging.String("report_id", payload.ReportID),
			logging.String("processing_status", string(payload.ProcessingStatus)))
		return result
	}

	name := fmt.Sprintf("%s-%s-%s", payload.SellerID, payload.ReportID, d.newSuffix())
	input := TriggerInput{
		SellerID:         payload.SellerID,
		ReportID:         payload.ReportID,
		ReportType:       payload.ReportType,
		ProcessingStatus: string(payload.ProcessingStatus),
		ReportDocumentID: payload.ReportDocumentID,
	}

	arn, err := d.engine.StartExecution(ctx, name, input)
	if err != nil {
		result.Outcome = OutcomeRejected
		result.Err = err
		d.log.Error("Failed to start retrieval workflow", err,
			logging.String("message_id", msg.ID),
			logging.String("execution_name", name),
			logging.String("report_id", payload.ReportID))
		return result
	}

	result.Outcome = OutcomeRouted
	result.ExecutionName = name
	result.ExecutionARN = arn
	d.log.Info("Routed terminal report notification",
		logging.String("message_id", msg.ID),
		logging.String("execution_name", name),
		logging.String("seller_id", payload.SellerID),
		logging.String("report_id", payload.ReportID),
		logging.String("processing_status", string(payload.ProcessingStatus)))
	return result
}
