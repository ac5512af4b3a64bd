// Package consumer long-polls the notification queue and feeds batches to
// the dispatcher. It exists for environments where the queue is not wired
// to an event source mapping; in Lambda deployments the runtime delivers
// batches directly.
package consumer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/dispatcher"
)

// SQSAPI is the subset of the SQS client this package uses
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

var _ SQSAPI = (*sqs.Client)(nil)

const (
	maxMessagesPerPoll = 10
	waitTime           = 20 * time.Second
	receiveRetryDelay  = 5 * time.Second
)

// Consumer drains one queue into a dispatcher
type Consumer struct {
	sqs      SQSAPI
	dispatch *dispatcher.Dispatcher
	queueURL string
	log      logging.Logger
}

// New creates a Consumer for the given queue URL
func New(sqsClient SQSAPI, dispatch *dispatcher.Dispatcher, queueURL string, log logging.Logger) *Consumer {
	return &Consumer{
		sqs:      sqsClient,
		dispatch: dispatch,
		queueURL: queueURL,
		log:      log,
	}
}

// Run long-polls until the context is cancelled. Receive errors back off
// and retry; they never terminate the loop.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("Notification consumer started", logging.String("queue_url", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Notification consumer stopped", logging.String("queue_url", c.queueURL))
			return ctx.Err()
		default:
		}

		out, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: maxMessagesPerPoll,
			WaitTimeSeconds:     int32(waitTime / time.Second),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Receiving notifications failed", err, logging.String("queue_url", c.queueURL))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveRetryDelay):
			}
			continue
		}

		if len(out.Messages) == 0 {
			continue
		}

		c.process(ctx, out)
	}
}

// process dispatches one received batch and settles each message by its
// outcome. Skipped and routed messages are done. A message rejected as
// malformed is poison and is deleted so it cannot loop forever. A message
// whose routing failed stays visible so the queue redelivers it.
func (c *Consumer) process(ctx context.Context, out *sqs.ReceiveMessageOutput) {
	messages := make([]dispatcher.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, dispatcher.Message{
			ID:   aws.ToString(m.MessageId),
			Body: aws.ToString(m.Body),
		})
	}

	results := c.dispatch.DispatchBatch(ctx, messages)
	for i, result := range results {
		if result.Outcome == dispatcher.OutcomeRejected && !errors.IsType(result.Err, errors.ErrTypeMalformedInput) {
			c.log.Warn("Leaving message visible for redelivery",
				logging.String("message_id", result.MessageID),
				logging.Err(result.Err))
			continue
		}

		_, err := c.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: out.Messages[i].ReceiptHandle,
		})
		if err != nil {
			// The message will be redelivered and settled again.
			c.log.Warn("Deleting settled message failed",
				logging.String("message_id", result.MessageID),
				logging.Err(err))
		}
	}
}
