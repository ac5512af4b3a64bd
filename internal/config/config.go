// Package config provides configuration management for the SP-API bridge.
// It handles loading configuration from environment variables and validating
// the subsets each entrypoint needs before any side effect occurs.
//
// A Config is constructed once per invocation and passed to each component
// explicitly. Secret values are never held here - only the identifiers used
// to fetch them fresh on every invocation, since both secrets may rotate
// between invocations.
//
// Environment Variables:
//
// Application Settings:
//   - AWS_REGION: Control-plane region for the bridge's own AWS clients (default: us-east-1)
//   - LOG_LEVEL: Logging level (default: INFO)
//   - PORT: Dev server port (default: 8080)
//
// Credential Vault:
//   - ENCRYPTION_KEY_ARN: KMS master key used for envelope encryption
//   - SELLING_PARTNERS_TABLE_NAME: DynamoDB table holding encrypted refresh tokens
//
// Authorization:
//   - IAM_USER_CREDENTIALS_SECRET_ARN: Secrets Manager ARN of the IAM user credentials
//   - SP_API_APP_CREDENTIALS_SECRET_ARN: Secrets Manager ARN of the LWA app credentials
//   - ROLE_ARN: IAM role assumed when calling the Selling Partner API
//
// Report Ledger:
//   - REPORTS_TABLE_NAME: DynamoDB table tying (ReportId, SellerId) to RegionCode
//
// Notifications:
//   - SQS_QUEUE_ARN: Queue registered as the SP-API notification destination
//   - SQS_QUEUE_URL: Queue URL for the non-Lambda consumer
//   - STATE_MACHINE_ARN: Step Functions state machine started per terminal report event
//
// Report Documents:
//   - DESTINATION_S3_BUCKET_NAME: Bucket report documents are copied into
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration values for the SP-API bridge.
// All fields correspond to environment variables.
type Config struct {
	// Application settings
	AWSRegion string // Region for the bridge's own AWS service clients
	LogLevel  string // Logging level (debug, info, warn, error)
	Port      string // Dev server port number

	// Credential vault
	EncryptionKeyARN     string // KMS master key ARN for envelope encryption
	SellingPartnersTable string // DynamoDB table for encrypted refresh tokens

	// Authorization
	IAMUserCredentialsSecretARN string // Secrets Manager ARN for IAM user credentials
	AppCredentialsSecretARN     string // Secrets Manager ARN for LWA app credentials
	RoleARN                     string // Role assumed for SP-API calls

	// Report ledger
	ReportsTable string // DynamoDB table for report region records

	// Notifications
	SQSQueueARN     string // Notification destination queue ARN
	SQSQueueURL     string // Queue URL used by the polling consumer
	StateMachineARN string // Step Functions state machine for report retrieval

	// Report documents
	DestinationBucket string // S3 bucket report documents are stored in
}

// Load creates a new Config instance with values loaded from environment
// variables. It does not validate - call the Validate* method matching the
// entrypoint's needs before use.
func Load() *Config {
	return &Config{
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		Port:      getEnv("PORT", "8080"),

		EncryptionKeyARN:     getEnv("ENCRYPTION_KEY_ARN", ""),
		SellingPartnersTable: getEnv("SELLING_PARTNERS_TABLE_NAME", ""),

		IAMUserCredentialsSecretARN: getEnv("IAM_USER_CREDENTIALS_SECRET_ARN", ""),
		AppCredentialsSecretARN:     getEnv("SP_API_APP_CREDENTIALS_SECRET_ARN", ""),
		RoleARN:                     getEnv("ROLE_ARN", ""),

		ReportsTable: getEnv("REPORTS_TABLE_NAME", ""),

		SQSQueueARN:     getEnv("SQS_QUEUE_ARN", ""),
		SQSQueueURL:     getEnv("SQS_QUEUE_URL", ""),
		StateMachineARN: getEnv("STATE_MACHINE_ARN", ""),

		DestinationBucket: getEnv("DESTINATION_S3_BUCKET_NAME", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateVault checks the fields the credential vault requires
func (c *Config) ValidateVault() error {
	return c.require(map[string]string{
		"ENCRYPTION_KEY_ARN":          c.EncryptionKeyARN,
		"SELLING_PARTNERS_TABLE_NAME": c.SellingPartnersTable,
	})
}

// ValidateAuthorization checks the fields session construction requires.
// The vault fields are included because authorized sessions read from it.
func (c *Config) ValidateAuthorization() error {
	if err := c.ValidateVault(); err != nil {
		return err
	}
	return c.require(map[string]string{
		"IAM_USER_CREDENTIALS_SECRET_ARN":   c.IAMUserCredentialsSecretARN,
		"SP_API_APP_CREDENTIALS_SECRET_ARN": c.AppCredentialsSecretARN,
		"ROLE_ARN":                          c.RoleARN,
	})
}

// ValidateLedger checks the fields the report ledger requires
func (c *Config) ValidateLedger() error {
	return c.require(map[string]string{
		"REPORTS_TABLE_NAME": c.ReportsTable,
	})
}

// ValidateDispatcher checks the fields notification dispatch requires
func (c *Config) ValidateDispatcher() error {
	return c.require(map[string]string{
		"STATE_MACHINE_ARN": c.StateMachineARN,
	})
}

// ValidateConsumer checks the fields the SQS polling consumer requires
func (c *Config) ValidateConsumer() error {
	if err := c.ValidateDispatcher(); err != nil {
		return err
	}
	return c.require(map[string]string{
		"SQS_QUEUE_URL": c.SQSQueueURL,
	})
}

// ValidateSubscriber checks the fields notification subscription requires
func (c *Config) ValidateSubscriber() error {
	if err := c.ValidateAuthorization(); err != nil {
		return err
	}
	return c.require(map[string]string{
		"SQS_QUEUE_ARN": c.SQSQueueARN,
	})
}

// ValidateDocuments checks the fields report document storage requires
func (c *Config) ValidateDocuments() error {
	return c.require(map[string]string{
		"DESTINATION_S3_BUCKET_NAME": c.DestinationBucket,
	})
}

// ValidateServer checks the fields the dev server requires
func (c *Config) ValidateServer() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}
	return nil
}

func (c *Config) require(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%s environment variable is required", name)
		}
	}
	return nil
}
