package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frahmantamala/payment-ledger/internal/core/dynamo"
	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/payment-ledger/internal/payment"
)

type paymentItem struct {
	ID             string `dynamodbav:"id"`
	CardNumber     string `dynamodbav:"card_number"`
	Amount         int64  `dynamodbav:"amount"`
	RefundedAmount int64  `dynamodbav:"refunded_amount"`
	Status         string `dynamodbav:"status"`
	CreatedAt      string `dynamodbav:"created_at"`
	UpdatedAt      string `dynamodbav:"updated_at"`
}

type cardLockItem struct {
	CardNumber string `dynamodbav:"card_number"`
	PaymentID  string `dynamodbav:"payment_id"`
}

// PaymentRepository keeps payments in DynamoDB. A processing payment owns a
// lock item keyed by card number; the payment and its lock are written and
// removed in the same transaction.
type PaymentRepository struct {
	ddb    *dynamodb.Client
	tables dynamo.Tables
}

var _ paymentpkg.RepositoryAPI = (*PaymentRepository)(nil)

func NewPaymentRepository(ddb *dynamodb.Client, tables dynamo.Tables) *PaymentRepository {
	return &PaymentRepository{
		ddb:    ddb,
		tables: tables,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *paymentDatamodel.Payment) error {
	payment, err := attributevalue.MarshalMap(toPaymentItem(p))
	if err != nil {
		return err
	}
	lock, err := attributevalue.MarshalMap(cardLockItem{CardNumber: p.CardNumber, PaymentID: p.ID})
	if err != nil {
		return err
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tables.Payments),
				Item:                     payment,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tables.CardLocks),
				Item:                     lock,
				ConditionExpression:      aws.String("attribute_not_exists(#card)"),
				ExpressionAttributeNames: map[string]string{"#card": "card_number"},
			}},
		},
	})
	if err != nil {
		if dynamo.CancelledAt(err, 1) {
			return fmt.Errorf("%w: %v", paymentpkg.ErrDuplicateActiveCard, err)
		}
		return fmt.Errorf("put payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*paymentDatamodel.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Payments),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, paymentpkg.ErrNotFound
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return fromPaymentItem(it), nil
}

// Transition is a conditional update on status. Leaving processing also
// deletes the card lock, guarded on it still belonging to this payment.
func (r *PaymentRepository) Transition(ctx context.Context, id, from, to string) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{
		{Update: &types.Update{
			TableName: aws.String(r.tables.Payments),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: id},
			},
			UpdateExpression:         aws.String("SET #status = :to, updated_at = :now"),
			ConditionExpression:      aws.String("#status = :from"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":to":   &types.AttributeValueMemberS{Value: to},
				":from": &types.AttributeValueMemberS{Value: from},
				":now":  &types.AttributeValueMemberS{Value: dynamo.FormatTime(time.Now())},
			},
		}},
	}

	if from == paymentDatamodel.StatusProcessing {
		items = append(items, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(r.tables.CardLocks),
			Key: map[string]types.AttributeValue{
				"card_number": &types.AttributeValueMemberS{Value: current.CardNumber},
			},
			ConditionExpression: aws.String("payment_id = :pid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pid": &types.AttributeValueMemberS{Value: id},
			},
		}})
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if dynamo.ConditionFailed(err) {
			return fmt.Errorf("%w: %s -> %s", paymentpkg.ErrInvalidTransition, from, to)
		}
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func toPaymentItem(p *paymentDatamodel.Payment) paymentItem {
	return paymentItem{
		ID:             p.ID,
		CardNumber:     p.CardNumber,
		Amount:         p.Amount,
		RefundedAmount: p.RefundedAmount,
		Status:         p.Status,
		CreatedAt:      dynamo.FormatTime(p.CreatedAt),
		UpdatedAt:      dynamo.FormatTime(p.UpdatedAt),
	}
}

func fromPaymentItem(it paymentItem) *paymentDatamodel.Payment {
	return &paymentDatamodel.Payment{
		ID:             it.ID,
		CardNumber:     it.CardNumber,
		Amount:         it.Amount,
		RefundedAmount: it.RefundedAmount,
		Status:         it.Status,
		CreatedAt:      dynamo.ParseTime(it.CreatedAt),
		UpdatedAt:      dynamo.ParseTime(it.UpdatedAt),
	}
}
