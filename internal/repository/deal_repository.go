package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/shopspring/decimal"
)

// dealRecord is the DynamoDB shape of a deal. Money is stored as decimal
// strings and the expiry as unix seconds so it can be compared in filters.
type dealRecord struct {
	DealID             int64     `dynamodbav:"deal_id"`
	ProductID          int64     `dynamodbav:"product_id"`
	Description        string    `dynamodbav:"description"`
	BuyQuantity        int       `dynamodbav:"buy_quantity"`
	DiscountPercentage *string   `dynamodbav:"discount_percentage,omitempty"`
	DiscountAmount     *string   `dynamodbav:"discount_amount,omitempty"`
	GetQuantity        *int      `dynamodbav:"get_quantity,omitempty"`
	ExpiresAt          *int64    `dynamodbav:"expires_at,omitempty"` // unix milliseconds
	Active             bool      `dynamodbav:"active"`
	CreatedAt          time.Time `dynamodbav:"created_at"`
}

func toDealRecord(d *domain.Deal) dealRecord {
	rec := dealRecord{
		DealID:      d.ID,
		ProductID:   d.ProductID,
		Description: d.Description,
		BuyQuantity: d.BuyQuantity,
		GetQuantity: d.GetQuantity,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
	}
	if d.DiscountPercentage != nil {
		s := d.DiscountPercentage.String()
		rec.DiscountPercentage = &s
	}
	if d.DiscountAmount != nil {
		s := d.DiscountAmount.StringFixed(2)
		rec.DiscountAmount = &s
	}
	if d.ExpiresAt != nil {
		ms := d.ExpiresAt.UnixMilli()
		rec.ExpiresAt = &ms
	}
	return rec
}

func (r dealRecord) toDomain() (*domain.Deal, error) {
	d := &domain.Deal{
		ID:          r.DealID,
		ProductID:   r.ProductID,
		Description: r.Description,
		BuyQuantity: r.BuyQuantity,
		GetQuantity: r.GetQuantity,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
	}
	if r.DiscountPercentage != nil {
		pct, err := decimal.NewFromString(*r.DiscountPercentage)
		if err != nil {
			return nil, fmt.Errorf("invalid discount percentage for deal %d: %w", r.DealID, err)
		}
		d.DiscountPercentage = &pct
	}
	if r.DiscountAmount != nil {
		amount, err := decimal.NewFromString(*r.DiscountAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid discount amount for deal %d: %w", r.DealID, err)
		}
		d.DiscountAmount = &amount
	}
	if r.ExpiresAt != nil {
		t := time.UnixMilli(*r.ExpiresAt).UTC()
		d.ExpiresAt = &t
	}
	return d, nil
}

// activeAt matches deals that are active and not expired at now.
func activeAt(now time.Time) expression.ConditionBuilder {
	return expression.Name("active").Equal(expression.Value(true)).And(
		expression.Or(
			expression.AttributeNotExists(expression.Name("expires_at")),
			expression.Name("expires_at").GreaterThanEqual(expression.Value(now.UnixMilli())),
		),
	)
}

// DynamoDealRepository reads deals per product through a global secondary
// index keyed on product_id.
type DynamoDealRepository struct {
	client       *dynamodb.Client
	tableName    string
	productIndex string
	ids          *counters
}

func NewDynamoDealRepository(client *dynamodb.Client, tableName, productIndex, counterTable string) *DynamoDealRepository {
	return &DynamoDealRepository{
		client:       client,
		tableName:    tableName,
		productIndex: productIndex,
		ids:          &counters{client: client, tableName: counterTable},
	}
}

func (r *DynamoDealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	id, err := r.ids.next(ctx, "deal")
	if err != nil {
		return err
	}
	deal.ID = id
	return r.put(ctx, deal, nil)
}

func (r *DynamoDealRepository) FindByID(ctx context.Context, id int64) (*domain.Deal, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numberKey("deal_id", id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	if result.Item == nil {
		return nil, ErrDealNotFound
	}

	var rec dealRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deal: %w", err)
	}
	return rec.toDomain()
}

func (r *DynamoDealRepository) Save(ctx context.Context, deal *domain.Deal) error {
	cond := expression.AttributeExists(expression.Name("deal_id"))
	return r.put(ctx, deal, &cond)
}

func (r *DynamoDealRepository) put(ctx context.Context, deal *domain.Deal, cond *expression.ConditionBuilder) error {
	av, err := attributevalue.MarshalMap(toDealRecord(deal))
	if err != nil {
		return fmt.Errorf("failed to marshal deal: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if cond != nil {
		expr, err := expression.NewBuilder().WithCondition(*cond).Build()
		if err != nil {
			return err
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrDealNotFound
		}
		return fmt.Errorf("failed to put deal: %w", err)
	}
	return nil
}

func (r *DynamoDealRepository) FindActiveDealsForProduct(ctx context.Context, productID int64, now time.Time) ([]*domain.Deal, error) {
	keyCond := expression.Key("product_id").Equal(expression.Value(productID))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(activeAt(now)).
		Build()
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.productIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var deals []*domain.Deal
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query deals for product %d: %w", productID, err)
		}
		batch, err := decodeDeals(page.Items)
		if err != nil {
			return nil, err
		}
		deals = append(deals, batch...)
	}
	return deals, nil
}

func (r *DynamoDealRepository) FindActive(ctx context.Context, now time.Time) ([]*domain.Deal, error) {
	expr, err := expression.NewBuilder().WithFilter(activeAt(now)).Build()
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var deals []*domain.Deal
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deals: %w", err)
		}
		batch, err := decodeDeals(page.Items)
		if err != nil {
			return nil, err
		}
		deals = append(deals, batch...)
	}
	sortNewestFirst(deals)
	return deals, nil
}

func decodeDeals(items []map[string]types.AttributeValue) ([]*domain.Deal, error) {
	var recs []dealRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deals: %w", err)
	}
	deals := make([]*domain.Deal, 0, len(recs))
	for _, rec := range recs {
		d, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, nil
}
