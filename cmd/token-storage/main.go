// Lambda entrypoint that stores a seller's refresh token in the
// credential vault. The token exists in plaintext only inside the
// invocation; the response carries no credential material.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"spapi-bridge/internal/app"
	"spapi-bridge/internal/common/logging"
)

// Request carries one seller's refresh token
type Request struct {
	SellerID     string `json:"sellerId"`
	RefreshToken string `json:"refreshToken"`
}

// Response acknowledges storage without echoing any credential
type Response struct {
	SellerID string `json:"sellerId"`
	Stored   bool   `json:"stored"`
}

func handler(ctx context.Context, req Request) (Response, error) {
	a, err := app.New(ctx, "token-storage")
	if err != nil {
		return Response{}, err
	}
	if err := a.Config.ValidateVault(); err != nil {
		return Response{}, err
	}

	if err := a.Vault().Put(ctx, req.SellerID, req.RefreshToken); err != nil {
		return Response{}, err
	}

	a.Logger.Info("Refresh token stored", logging.String("seller_id", req.SellerID))
	return Response{SellerID: req.SellerID, Stored: true}, nil
}

func main() {
	_ = godotenv.Load()
	lambda.Start(handler)
}
