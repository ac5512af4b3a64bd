// Package app wires configuration, AWS clients and components together for
// the entrypoints. Each entrypoint constructs a fresh App per process (or
// per invocation, for Lambda handlers) so that no secret-bearing state
// outlives the work it was fetched for.
package app

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"spapi-bridge/internal/authz"
	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/config"
	"spapi-bridge/internal/consumer"
	"spapi-bridge/internal/dispatcher"
	"spapi-bridge/internal/documents"
	"spapi-bridge/internal/ledger"
	"spapi-bridge/internal/reports"
	"spapi-bridge/internal/secrets"
	"spapi-bridge/internal/vault"
	"spapi-bridge/internal/workflow"
)

// roleSessionName identifies this bridge in assumed-role session audit trails
const roleSessionName = "spapi-bridge"

// App holds the shared configuration and AWS client configuration
type App struct {
	Config *config.Config
	Logger logging.Logger

	aws aws.Config
}

// New loads configuration and the AWS client configuration. Validation is
// left to the entrypoint, which knows which subset it needs.
func New(ctx context.Context, name string) (*App, error) {
	cfg := config.Load()
	logging.InitGlobalLogger(name)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, errors.ConfigError("loading AWS configuration failed: " + err.Error())
	}

	return &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger(),
		aws:    awsCfg,
	}, nil
}

// Vault builds the credential vault
func (a *App) Vault() *vault.Vault {
	return vault.New(
		kms.NewFromConfig(a.aws),
		dynamodb.NewFromConfig(a.aws),
		a.Config.EncryptionKeyARN,
		a.Config.SellingPartnersTable,
		a.Logger,
	)
}

// SecretStore builds the Secrets Manager backed secret store
func (a *App) SecretStore() secrets.Store {
	return secrets.NewManagerStore(secretsmanager.NewFromConfig(a.aws))
}

// Broker builds the authorization broker over the vault and secret store
func (a *App) Broker() *authz.Broker {
	return authz.New(a.SecretStore(), a.Vault(), authz.Options{
		AppCredentialsSecretID:     a.Config.AppCredentialsSecretARN,
		IAMUserCredentialsSecretID: a.Config.IAMUserCredentialsSecretARN,
		RoleARN:                    a.Config.RoleARN,
		RoleSessionName:            roleSessionName,
	})
}

// Ledger builds the report region ledger
func (a *App) Ledger() *ledger.Ledger {
	return ledger.New(dynamodb.NewFromConfig(a.aws), a.Config.ReportsTable)
}

// Dispatcher builds the notification dispatcher over the workflow engine
func (a *App) Dispatcher() *dispatcher.Dispatcher {
	engine := workflow.New(sfn.NewFromConfig(a.aws), a.Config.StateMachineARN)
	return dispatcher.New(engine, a.Logger)
}

// Consumer builds the SQS polling consumer for non-Lambda deployments
func (a *App) Consumer() *consumer.Consumer {
	return consumer.New(sqs.NewFromConfig(a.aws), a.Dispatcher(), a.Config.SQSQueueURL, a.Logger)
}

// Documents builds the report document storage
func (a *App) Documents() *documents.Storage {
	s3Client := s3.NewFromConfig(a.aws)
	return documents.NewStorage(
		s3Client,
		s3.NewPresignClient(s3Client),
		http.DefaultClient,
		a.Config.DestinationBucket,
		a.Logger,
	)
}

// Reports builds the report orchestration service. The factory supplies
// the external API clients; this module ships only their boundary.
func (a *App) Reports(factory reports.ClientFactory) *reports.Service {
	return reports.New(a.Broker(), a.Ledger(), factory, a.Config.SQSQueueARN, a.Logger)
}
