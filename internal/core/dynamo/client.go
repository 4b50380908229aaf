// Package dynamo holds the DynamoDB plumbing shared by the ledger
// repositories: client construction, table bootstrap and error helpers.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frahmantamala/payment-ledger/internal"
)

const (
	RefundsPaymentIndex = "payment_id-index"

	conditionalCheckFailed = "ConditionalCheckFailed"
)

// Tables names the three ledger tables.
//
//   - payments: PK id
//   - card locks: PK card_number, one item per processing payment
//   - refunds: PK id, GSI payment_id-index (PK payment_id)
type Tables struct {
	Payments  string
	CardLocks string
	Refunds   string
}

func TablesFromConfig(cfg internal.DynamoDBConfig) Tables {
	return Tables{
		Payments:  cfg.PaymentsTable,
		CardLocks: cfg.CardLocksTable,
		Refunds:   cfg.RefundsTable,
	}
}

// NewClient builds a client for AWS or, when an endpoint is configured, for
// DynamoDB Local. Local does not check credentials but the SDK requires some.
func NewClient(ctx context.Context, cfg internal.DynamoDBConfig) (*dynamodb.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	accessKey, secretKey := cfg.AccessKeyID, cfg.SecretAccessKey
	if cfg.Endpoint != "" && accessKey == "" {
		accessKey, secretKey = "local", "local"
	}
	if accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// EnsureTables creates any missing ledger table and waits until all exist.
func EnsureTables(ctx context.Context, client *dynamodb.Client, tables Tables) error {
	inputs := []*dynamodb.CreateTableInput{
		{
			TableName:            aws.String(tables.Payments),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS}},
			KeySchema:            []types.KeySchemaElement{{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash}},
		},
		{
			TableName:            aws.String(tables.CardLocks),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{{AttributeName: aws.String("card_number"), AttributeType: types.ScalarAttributeTypeS}},
			KeySchema:            []types.KeySchemaElement{{AttributeName: aws.String("card_number"), KeyType: types.KeyTypeHash}},
		},
		{
			TableName:   aws.String(tables.Refunds),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("payment_id"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash}},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
				IndexName:  aws.String(RefundsPaymentIndex),
				KeySchema:  []types.KeySchemaElement{{AttributeName: aws.String("payment_id"), KeyType: types.KeyTypeHash}},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			}},
		},
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	for _, in := range inputs {
		_, err := client.CreateTable(ctx, in)
		var inUse *types.ResourceInUseException
		if err != nil && !errors.As(err, &inUse) {
			return fmt.Errorf("create table %s: %w", aws.ToString(in.TableName), err)
		}
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName}, 30*time.Second); err != nil {
			return fmt.Errorf("wait for table %s: %w", aws.ToString(in.TableName), err)
		}
	}
	return nil
}

// CancelledAt reports whether a transactional write was cancelled because
// the condition on the item at index failed.
func CancelledAt(err error, index int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	if index < 0 || index >= len(tce.CancellationReasons) {
		return false
	}
	return aws.ToString(tce.CancellationReasons[index].Code) == conditionalCheckFailed
}

// ConditionFailed reports a failed condition on a single-item write or on
// any item of a transaction.
func ConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == conditionalCheckFailed {
				return true
			}
		}
	}
	return false
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
