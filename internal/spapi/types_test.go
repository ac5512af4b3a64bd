package spapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   ProcessingStatus
		terminal bool
	}{
		{StatusDone, true},
		{StatusCancelled, true},
		{StatusFatal, true},
		{StatusInProgress, false},
		{StatusInQueue, false},
		{ProcessingStatus("SOMETHING_ELSE"), false},
		{ProcessingStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestValidNotificationType(t *testing.T) {
	assert.True(t, ValidNotificationType("REPORT_PROCESSING_FINISHED"))
	assert.True(t, ValidNotificationType("ANY_OFFER_CHANGED"))
	assert.False(t, ValidNotificationType("report_processing_finished"))
	assert.False(t, ValidNotificationType("ORDER_CHANGE"))
	assert.False(t, ValidNotificationType(""))
}

func TestDecodeReportProcessingFinished_Nested(t *testing.T) {
	payload := json.RawMessage(`{
		"reportProcessingFinishedNotification": {
			"sellerId": "S1",
			"reportId": "R1",
			"reportType": "GET_MERCHANT_LISTINGS_ALL_DATA",
			"processingStatus": "DONE",
			"reportDocumentId": "DOC1"
		}
	}`)

	got, err := DecodeReportProcessingFinished(payload)
	require.NoError(t, err)
	assert.Equal(t, "S1", got.SellerID)
	assert.Equal(t, "R1", got.ReportID)
	assert.Equal(t, StatusDone, got.ProcessingStatus)
	assert.Equal(t, "DOC1", got.ReportDocumentID)
}

func TestDecodeReportProcessingFinished_Flat(t *testing.T) {
	payload := json.RawMessage(`{
		"sellerId": "S2",
		"reportId": "R2",
		"reportType": "GET_FLAT_FILE_OPEN_LISTINGS_DATA",
		"processingStatus": "CANCELLED"
	}`)

	got, err := DecodeReportProcessingFinished(payload)
	require.NoError(t, err)
	assert.Equal(t, "S2", got.SellerID)
	assert.Equal(t, StatusCancelled, got.ProcessingStatus)
	assert.Empty(t, got.ReportDocumentID)
}

func TestDecodeReportProcessingFinished_Malformed(t *testing.T) {
	_, err := DecodeReportProcessingFinished(json.RawMessage(`"not an object"`))
	assert.Error(t, err)
}

func TestNotification_UnknownFieldsIgnored(t *testing.T) {
	body := `{
		"notificationVersion": "1.0",
		"notificationType": "REPORT_PROCESSING_FINISHED",
		"eventTime": "2023-01-01T12:00:00Z",
		"payload": {},
		"somethingNew": true
	}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(body), &n))
	assert.Equal(t, NotificationTypeReportProcessingFinished, n.NotificationType)
}
