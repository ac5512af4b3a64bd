// Lambda entrypoint of the retrieval workflow's final step. It mints a
// time-limited download link for the stored report document.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"spapi-bridge/internal/app"
)

// Request is the workflow state consumed by this step
type Request struct {
	ObjectKey string `json:"ObjectKey"`
}

// Response carries the presigned download URL
type Response struct {
	PresignedURL string `json:"PresignedUrl"`
}

func handler(ctx context.Context, req Request) (Response, error) {
	a, err := app.New(ctx, "report-presigned-url")
	if err != nil {
		return Response{}, err
	}
	if err := a.Config.ValidateDocuments(); err != nil {
		return Response{}, err
	}

	url, err := a.Documents().PresignGet(ctx, req.ObjectKey)
	if err != nil {
		return Response{}, err
	}

	return Response{PresignedURL: url}, nil
}

func main() {
	_ = godotenv.Load()
	lambda.Start(handler)
}
