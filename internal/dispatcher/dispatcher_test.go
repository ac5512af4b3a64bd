package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

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

type startCall struct {
	name  string
	input interface{}
}

type fakeEngine struct {
	calls []startCall
	err   error
}

func (f *fakeEngine) StartExecution(_ context.Context, name string, input interface{}) (string, error) {
	f.calls = append(f.calls, startCall{name: name, input: input})
	if f.err != nil {
		return "", f.err
	}
	return "arn:aws:states:us-east-1:123456789012:execution:retrieval:" + name, nil
}

func newTestDispatcher(engine *fakeEngine) *Dispatcher {
	d := New(engine, nopLogger{})
	d.newSuffix = func() string { return "fixed-suffix" }
	return d
}

func reportBody(t *testing.T, notificationType, status string) string {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"notificationType": notificationType,
		"eventTime":        "2024-05-02T10:15:00Z",
		"payload": map[string]interface{}{
			"reportProcessingFinishedNotification": map[string]interface{}{
				"sellerId":         "A2SELLER",
				"reportId":         "R123",
				"reportType":       "GET_MERCHANT_LISTINGS_ALL_DATA",
				"processingStatus": status,
				"reportDocumentId": "DOC-9",
			},
		},
	})
	require.NoError(t, err)
	return string(body)
}

func TestDispatch_TerminalReportStartsOneExecution(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDispatcher(engine)

	result := d.Dispatch(context.Background(), Message{
		ID:   "m1",
		Body: reportBody(t, spapi.NotificationTypeReportProcessingFinished, "DONE"),
	})

	assert.Equal(t, OutcomeRouted, result.Outcome)
	assert.NoError(t, result.Err)
	require.Len(t, engine.calls, 1)
	assert.Equal(t, "A2SELLER-R123-fixed-suffix", engine.calls[0].name)
	assert.Equal(t, engine.calls[0].name, result.ExecutionName)
	assert.Contains(t, result.ExecutionARN, result.ExecutionName)

	input, ok := engine.calls[0].input.(TriggerInput)
	require.True(t, ok)
	assert.Equal(t, "A2SELLER", input.SellerID)
	assert.Equal(t, "R123", input.ReportID)
	assert.Equal(t, "GET_MERCHANT_LISTINGS_ALL_DATA", input.ReportType)
	assert.Equal(t, "DONE", input.ProcessingStatus)
	assert.Equal(t, "DOC-9", input.ReportDocumentID)
}

func TestDispatch_AllTerminalStatusesRoute(t *testing.T) {
	for _, status := range []string{"DONE", "CANCELLED", "FATAL"} {
		t.Run(status, func(t *testing.T) {
			engine := &fakeEngine{}
			d := newTestDispatcher(engine)

			result := d.Dispatch(context.Background(), Message{
				ID:   "m1",
				Body: reportBody(t, spapi.NotificationTypeReportProcessingFinished, status),
			})

			assert.Equal(t, OutcomeRouted, result.Outcome)
			assert.Len(t, engine.calls, 1)
		})
	}
}

func TestDispatch_InProgressNeverRoutes(t *testing.T) {
	for _, status := range []string{"IN_QUEUE", "IN_PROGRESS"} {
		t.Run(status, func(t *testing.T) {
			engine := &fakeEngine{}
			d := newTestDispatcher(engine)

			result := d.Dispatch(context.Background(), Message{
				ID:   "m1",
				Body: reportBody(t, spapi.NotificationTypeReportProcessingFinished, status),
			})

			assert.Equal(t, OutcomeSkipped, result.Outcome)
			assert.NoError(t, result.Err)
			assert.Empty(t, engine.calls)
		})
	}
}

func TestDispatch_UnrelatedTypeSkipped(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDispatcher(engine)

	result := d.Dispatch(context.Background(), Message{
		ID:   "m1",
		Body: reportBody(t, "ANY_OFFER_CHANGED", "DONE"),
	})

	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.NoError(t, result.Err)
	assert.Empty(t, engine.calls)
}

func TestDispatch_MalformedBodyRejected(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDispatcher(engine)

	result := d.Dispatch(context.Background(), Message{ID: "m1", Body: "{not json"})

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.True(t, errors.IsType(result.Err, errors.ErrTypeMalformedInput))
	assert.Empty(t, engine.calls)
}

func TestDispatch_MalformedPayloadRejected(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDispatcher(engine)

	result := d.Dispatch(context.Background(), Message{
		ID:   "m1",
		Body: `{"notificationType":"REPORT_PROCESSING_FINISHED","payload":"not-an-object"}`,
	})

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.True(t, errors.IsType(result.Err, errors.ErrTypeMalformedInput))
	assert.Empty(t, engine.calls)
}

func TestDispatch_EngineFailureRejected(t *testing.T) {
	engine := &fakeEngine{err: errors.UpstreamError("start execution", fmt.Errorf("throttled"))}
	d := newTestDispatcher(engine)

	result := d.Dispatch(context.Background(), Message{
		ID:   "m1",
		Body: reportBody(t, spapi.NotificationTypeReportProcessingFinished, "DONE"),
	})

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.True(t, errors.IsType(result.Err, errors.ErrTypeUpstream))
}

func TestDispatchBatch_IsolatesMessages(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDispatcher(engine)

	results := d.DispatchBatch(context.Background(), []Message{
		{ID: "m1", Body: "garbage"},
		{ID: "m2", Body: reportBody(t, spapi.NotificationTypeReportProcessingFinished, "DONE")},
		{ID: "m3", Body: reportBody(t, "FEED_PROCESSING_FINISHED", "DONE")},
		{ID: "m4", Body: reportBody(t, spapi.NotificationTypeReportProcessingFinished, "IN_PROGRESS")},
	})

	require.Len(t, results, 4)
	assert.Equal(t, OutcomeRejected, results[0].Outcome)
	assert.Equal(t, OutcomeRouted, results[1].Outcome)
	assert.Equal(t, OutcomeSkipped, results[2].Outcome)
	assert.Equal(t, OutcomeSkipped, results[3].Outcome)
	assert.Equal(t, "m2", results[1].MessageID)
	assert.Len(t, engine.calls, 1)
}

func TestDispatch_UniqueSuffixPerMessage(t *testing.T) {
	engine := &fakeEngine{}
	d := New(engine, nopLogger{})
	n := 0
	d.newSuffix = func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}

	body := reportBody(t, spapi.NotificationTypeReportProcessingFinished, "DONE")
	d.Dispatch(context.Background(), Message{ID: "m1", Body: body})
	d.Dispatch(context.Background(), Message{ID: "m2", Body: body})

	require.Len(t, engine.calls, 2)
	assert.NotEqual(t, engine.calls[0].name, engine.calls[1].name)
}
