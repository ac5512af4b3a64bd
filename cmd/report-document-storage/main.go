// Lambda entrypoint of the retrieval workflow's storage step. The
// preceding step resolved the document descriptor; this one copies the
// document into the destination bucket and passes the object key on.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"spapi-bridge/internal/app"
	"spapi-bridge/internal/spapi"
)

// Request is the workflow state consumed by this step
type Request struct {
	ReportType     string               `json:"ReportType"`
	ReportDocument spapi.ReportDocument `json:"ReportDocument"`
}

// Response is the workflow state produced by this step
type Response struct {
	ObjectKey string `json:"ObjectKey"`
}

func handler(ctx context.Context, req Request) (Response, error) {
	a, err := app.New(ctx, "report-document-storage")
	if err != nil {
		return Response{}, err
	}
	if err := a.Config.ValidateDocuments(); err != nil {
		return Response{}, err
	}

	key, err := a.Documents().Store(ctx, &req.ReportDocument, req.ReportType)
	if err != nil {
		return Response{}, err
	}

	return Response{ObjectKey: key}, nil
}

func main() {
	_ = godotenv.Load()
	lambda.Start(handler)
}
