// Package vault stores seller refresh tokens under envelope encryption.
//
// Each Put requests a fresh data key from KMS under the configured master
// key, encrypts the token locally with AES-256-GCM, and persists a single
// self-describing blob to DynamoDB keyed by seller. Get reverses the
// process, requiring that the blob's committed algorithm matches what this
// code encrypts with before any plaintext is produced.
//
// The plaintext token exists only in the immediate caller's scope; it is
// never logged and never persisted.
package vault

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmsTypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/common/logging"
)

// KMSAPI is the subset of the KMS client this package uses
type KMSAPI interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// DynamoDBAPI is the subset of the DynamoDB client this package uses
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Compile-time interface checks
var (
	_ KMSAPI      = (*kms.Client)(nil)
	_ DynamoDBAPI = (*dynamodb.Client)(nil)
)

// credentialRecord is the stored shape: one record per seller,
// last-write-wins.
type credentialRecord struct {
	SellerID     string `dynamodbav:"SellerId"`
	RefreshToken []byte `dynamodbav:"RefreshToken"`
}

// Vault owns encrypted seller refresh tokens
type Vault struct {
	kms          KMSAPI
	db           DynamoDBAPI
	masterKeyARN string
	table        string
	log          logging.Logger
}

// New creates a Vault using the given collaborators
func New(kmsClient KMSAPI, db DynamoDBAPI, masterKeyARN, table string, log logging.Logger) *Vault {
	return &Vault{
		kms:          kmsClient,
		db:           db,
		masterKeyARN: masterKeyARN,
		table:        table,
		log:          log,
	}
}

// Put encrypts token under a fresh data key and upserts the seller's
// record, overwriting any prior token for that seller.
func (v *Vault) Put(ctx context.Context, sellerID, token string) error {
	if sellerID == "" {
		return errors.InvalidArgumentError("sellerID is required")
	}
	if token == "" {
		return errors.InvalidArgumentError("refresh token is required")
	}

	keyOut, err := v.kms.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(v.masterKeyARN),
		KeySpec: kmsTypes.DataKeySpecAes256,
	})
	if err != nil {
		return errors.CryptoError("generating data key failed", err)
	}
	defer wipe(keyOut.Plaintext)

	blob, err := seal(keyOut.Plaintext, keyOut.CiphertextBlob, []byte(token))
	if err != nil {
		return errors.CryptoError("encrypting refresh token failed", err)
	}

	item, err := attributevalue.MarshalMap(credentialRecord{
		SellerID:     sellerID,
		RefreshToken: blob,
	})
	if err != nil {
		return errors.UpstreamError("marshaling credential record failed", err)
	}

	_, err = v.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(v.table),
		Item:      item,
	})
	if err != nil {
		return errors.UpstreamError("writing credential record failed", err).
			WithContext("seller_id", sellerID)
	}

	v.log.Info("Stored refresh token", logging.String("seller_id", sellerID))
	return nil
}

// Get reads and decrypts the seller's refresh token. The returned
// plaintext must not be retained beyond the caller's immediate use.
func (v *Vault) Get(ctx context.Context, sellerID string) (string, error) {
	if sellerID == "" {
		return "", errors.InvalidArgumentError("sellerID is required")
	}

	key, err := attributevalue.MarshalMap(map[string]string{"SellerId": sellerID})
	if err != nil {
		return "", errors.UpstreamError("marshaling credential key failed", err)
	}

	out, err := v.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(v.table),
		Key:       key,
	})
	if err != nil {
		return "", errors.UpstreamError("reading credential record failed", err).
			WithContext("seller_id", sellerID)
	}
	if len(out.Item) == 0 {
		return "", errors.NotFoundError("seller credential").WithContext("seller_id", sellerID)
	}

	var record credentialRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return "", errors.UpstreamError("unmarshaling credential record failed", err)
	}

	plaintext, err := open(record.RefreshToken, func(wrappedKey []byte) ([]byte, error) {
		return v.unwrapDataKey(ctx, wrappedKey)
	})
	if err != nil {
		return "", errors.CryptoError("decrypting refresh token failed", err).
			WithContext("seller_id", sellerID)
	}

	return string(plaintext), nil
}

// unwrapDataKey asks KMS to decrypt a wrapped data key, pinning the
// expected master key so a ciphertext re-wrapped under another key is
// rejected.
func (v *Vault) unwrapDataKey(ctx context.Context, wrappedKey []byte) ([]byte, error) {
	out, err := v.kms.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: wrappedKey,
		KeyId:          aws.String(v.masterKeyARN),
	})
	if err != nil {
		return nil, err
	}
	return out.Plaintext, nil
}
