// Lambda entrypoint for the notification queue's event source mapping.
// Each SQS record is dispatched independently; records whose routing
// failed are reported as batch item failures so only they are redelivered.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"spapi-bridge/internal/app"
	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/dispatcher"
)

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	a, err := app.New(ctx, "notification-processor")
	if err != nil {
		return events.SQSEventResponse{}, err
	}
	if err := a.Config.ValidateDispatcher(); err != nil {
		return events.SQSEventResponse{}, err
	}

	messages := make([]dispatcher.Message, 0, len(event.Records))
	for _, record := range event.Records {
		messages = append(messages, dispatcher.Message{ID: record.MessageId, Body: record.Body})
	}

	var response events.SQSEventResponse
	results := a.Dispatcher().DispatchBatch(ctx, messages)
	for _, result := range results {
		// Malformed records are poison and must not be redelivered.
		if result.Outcome == dispatcher.OutcomeRejected && !errors.IsType(result.Err, errors.ErrTypeMalformedInput) {
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: result.MessageID})
		}
	}

	a.Logger.Info("Notification batch processed",
		logging.Int("records", len(event.Records)),
		logging.Int("failed", len(response.BatchItemFailures)))
	return response, nil
}

func main() {
	_ = godotenv.Load()
	lambda.Start(handler)
}
