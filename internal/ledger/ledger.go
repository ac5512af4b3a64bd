// Package ledger persists which region and seller a submitted report
// belongs to, so the stateless completion notification that arrives later
// can be tied back to its tenant context.
package ledger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/regions"
)

// DynamoDBAPI is the subset of the DynamoDB client this package uses
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// reportRecord is keyed by (ReportId hash, SellerId range). Written once
// when a report is submitted, read once when its notification arrives.
type reportRecord struct {
	ReportID   string `dynamodbav:"ReportId"`
	SellerID   string `dynamodbav:"SellerId"`
	RegionCode string `dynamodbav:"RegionCode"`
}

// Ledger is the durable (reportId, sellerId) -> regionCode association
type Ledger struct {
	db    DynamoDBAPI
	table string
}

// New creates a Ledger over the given table
func New(db DynamoDBAPI, table string) *Ledger {
	return &Ledger{db: db, table: table}
}

// Record upserts the region association for a report. Overwriting an
// existing record with the same values is harmless, which makes the write
// idempotent.
func (l *Ledger) Record(ctx context.Context, reportID, sellerID string, region regions.Code) error {
	if reportID == "" || sellerID == "" {
		return errors.InvalidArgumentError("reportID and sellerID are required")
	}

	item, err := attributevalue.MarshalMap(reportRecord{
		ReportID:   reportID,
		SellerID:   sellerID,
		RegionCode: string(region),
	})
	if err != nil {
		return errors.UpstreamError("marshaling report record failed", err)
	}

	_, err = l.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      item,
	})
	if err != nil {
		return errors.UpstreamError("writing report record failed", err).
			WithContext("report_id", reportID).
			WithContext("seller_id", sellerID)
	}

	return nil
}

// LookupRegion returns the region a report was submitted in. A missing
// record is a hard failure for the caller, not a skippable condition.
func (l *Ledger) LookupRegion(ctx context.Context, reportID, sellerID string) (regions.Code, error) {
	if reportID == "" || sellerID == "" {
		return "", errors.InvalidArgumentError("reportID and sellerID are required")
	}

	key, err := attributevalue.MarshalMap(map[string]string{
		"ReportId": reportID,
		"SellerId": sellerID,
	})
	if err != nil {
		return "", errors.UpstreamError("marshaling report key failed", err)
	}

	out, err := l.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.table),
		Key:       key,
	})
	if err != nil {
		return "", errors.UpstreamError("reading report record failed", err).
			WithContext("report_id", reportID).
			WithContext("seller_id", sellerID)
	}
	if len(out.Item) == 0 {
		return "", errors.NotFoundError("report record").
			WithContext("report_id", reportID).
			WithContext("seller_id", sellerID)
	}

	var record reportRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return "", errors.UpstreamError("unmarshaling report record failed", err)
	}

	return regions.Code(record.RegionCode), nil
}
