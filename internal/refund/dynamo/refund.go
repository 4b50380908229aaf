package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frahmantamala/payment-ledger/internal/core/dynamo"
	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
	refundDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/refund"
	refundpkg "github.com/frahmantamala/payment-ledger/internal/refund"
)

type refundItem struct {
	ID        string `dynamodbav:"id"`
	PaymentID string `dynamodbav:"payment_id"`
	Amount    int64  `dynamodbav:"amount"`
	CreatedAt string `dynamodbav:"created_at"`
}

type paymentHeader struct {
	Amount         int64  `dynamodbav:"amount"`
	RefundedAmount int64  `dynamodbav:"refunded_amount"`
	Status         string `dynamodbav:"status"`
}

// RefundRepository keeps refunds in DynamoDB. The refunded total lives on
// the payment item and is bumped in the same transaction as the refund put.
type RefundRepository struct {
	ddb    *dynamodb.Client
	tables dynamo.Tables
}

var _ refundpkg.RepositoryAPI = (*RefundRepository)(nil)

func NewRefundRepository(ddb *dynamodb.Client, tables dynamo.Tables) *RefundRepository {
	return &RefundRepository{
		ddb:    ddb,
		tables: tables,
	}
}

// Create reads the payment amount, which never changes, and then commits the
// refund with a condition on the running total: refunded_amount <= amount - refund.
func (r *RefundRepository) Create(ctx context.Context, refund *refundDatamodel.Refund) (int64, error) {
	header, err := r.paymentHeader(ctx, refund.PaymentID)
	if err != nil {
		return 0, err
	}
	if header.Status != paymentDatamodel.StatusApproved {
		return 0, refundpkg.ErrNotRefundable
	}
	ceiling := header.Amount - refund.Amount
	if ceiling < 0 {
		return 0, refundpkg.ErrExceedsBalance
	}

	item, err := attributevalue.MarshalMap(refundItem{
		ID:        refund.ID,
		PaymentID: refund.PaymentID,
		Amount:    refund.Amount,
		CreatedAt: dynamo.FormatTime(refund.CreatedAt),
	})
	if err != nil {
		return 0, err
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName: aws.String(r.tables.Payments),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: refund.PaymentID},
				},
				UpdateExpression:         aws.String("SET refunded_amount = refunded_amount + :amt, updated_at = :now"),
				ConditionExpression:      aws.String("#status = :approved AND refunded_amount <= :ceiling"),
				ExpressionAttributeNames: map[string]string{"#status": "status"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":amt":      &types.AttributeValueMemberN{Value: fmt.Sprint(refund.Amount)},
					":ceiling":  &types.AttributeValueMemberN{Value: fmt.Sprint(ceiling)},
					":approved": &types.AttributeValueMemberS{Value: paymentDatamodel.StatusApproved},
					":now":      &types.AttributeValueMemberS{Value: dynamo.FormatTime(time.Now())},
				},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tables.Refunds),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
		},
	})
	if err != nil {
		if dynamo.CancelledAt(err, 0) {
			return 0, r.rejection(ctx, refund.PaymentID)
		}
		return 0, fmt.Errorf("commit refund: %w", err)
	}

	after, err := r.paymentHeader(ctx, refund.PaymentID)
	if err != nil {
		return 0, err
	}
	return after.RefundedAmount, nil
}

func (r *RefundRepository) rejection(ctx context.Context, paymentID string) error {
	header, err := r.paymentHeader(ctx, paymentID)
	if err != nil {
		return err
	}
	if header.Status != paymentDatamodel.StatusApproved {
		return refundpkg.ErrNotRefundable
	}
	return refundpkg.ErrExceedsBalance
}

func (r *RefundRepository) paymentHeader(ctx context.Context, paymentID string) (*paymentHeader, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Payments),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: paymentID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, refundpkg.ErrPaymentNotFound
	}

	var header paymentHeader
	if err := attributevalue.UnmarshalMap(out.Item, &header); err != nil {
		return nil, err
	}
	return &header, nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id string) (*refundDatamodel.Refund, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Refunds),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get refund: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, refundpkg.ErrNotFound
	}

	var it refundItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return fromRefundItem(it), nil
}

// ListByPaymentID queries the payment_id GSI, which is eventually consistent.
func (r *RefundRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]*refundDatamodel.Refund, error) {
	paginator := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tables.Refunds),
		IndexName:              aws.String(dynamo.RefundsPaymentIndex),
		KeyConditionExpression: aws.String("payment_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: paymentID},
		},
	})

	refunds := make([]*refundDatamodel.Refund, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query refunds: %w", err)
		}
		for _, raw := range page.Items {
			var it refundItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			refunds = append(refunds, fromRefundItem(it))
		}
	}

	sort.Slice(refunds, func(i, j int) bool {
		return refunds[i].CreatedAt.Before(refunds[j].CreatedAt)
	})
	return refunds, nil
}

func fromRefundItem(it refundItem) *refundDatamodel.Refund {
	return &refundDatamodel.Refund{
		ID:        it.ID,
		PaymentID: it.PaymentID,
		Amount:    it.Amount,
		CreatedAt: dynamo.ParseTime(it.CreatedAt),
	}
}
