// Package secrets provides the key-to-secret-string lookup used to fetch
// application and infrastructure identities, backed by AWS Secrets Manager.
//
// Values are fetched fresh on every call and never cached: credential
// rotation may occur between invocations and a stale identity must never
// outlive the invocation that resolved it.
package secrets

import (
	"context"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"spapi-bridge/internal/common/errors"
)

// Store is the secret lookup boundary
type Store interface {
	GetSecret(ctx context.Context, secretID string) (string, error)
}

// SecretsManagerAPI is the subset of the Secrets Manager client this package uses
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Compile-time interface checks
var (
	_ SecretsManagerAPI = (*secretsmanager.Client)(nil)
	_ Store             = (*ManagerStore)(nil)
)

// ManagerStore implements Store on AWS Secrets Manager
type ManagerStore struct {
	client SecretsManagerAPI
}

// NewManagerStore creates a Store backed by the given Secrets Manager client
func NewManagerStore(client SecretsManagerAPI) *ManagerStore {
	return &ManagerStore{client: client}
}

// GetSecret fetches the secret string identified by secretID. A missing
// secret surfaces as not found; every other failure is an upstream error.
func (s *ManagerStore) GetSecret(ctx context.Context, secretID string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if stderrors.As(err, &notFound) {
			return "", errors.NotFoundError("secret").WithContext("secret_id", secretID)
		}
		return "", errors.UpstreamError("secret lookup failed", err).WithContext("secret_id", secretID)
	}

	if out.SecretString == nil {
		return "", errors.UpstreamError("secret has no string value", nil).WithContext("secret_id", secretID)
	}

	return *out.SecretString, nil
}
