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

// productRecord is the DynamoDB shape of a product. Price is stored as its
// decimal string so no precision is lost.
type productRecord struct {
	ProductID   int64     `dynamodbav:"product_id"`
	Name        string    `dynamodbav:"name"`
	Description string    `dynamodbav:"description"`
	Price       string    `dynamodbav:"price"`
	Category    string    `dynamodbav:"category"`
	Stock       int       `dynamodbav:"stock"`
	Available   bool      `dynamodbav:"available"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
	Version     int64     `dynamodbav:"version"`
}

func toProductRecord(p *domain.Product) productRecord {
	return productRecord{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    string(p.Category),
		Stock:       p.Stock,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

func (r productRecord) toDomain() (*domain.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for product %d: %w", r.Price, r.ProductID, err)
	}
	return &domain.Product{
		ID:          r.ProductID,
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		Category:    domain.Category(r.Category),
		Stock:       r.Stock,
		Available:   r.Available,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}, nil
}

type DynamoProductRepository struct {
	client    *dynamodb.Client
	tableName string
	ids       *counters
}

func NewDynamoProductRepository(client *dynamodb.Client, tableName, counterTable string) *DynamoProductRepository {
	return &DynamoProductRepository{
		client:    client,
		tableName: tableName,
		ids:       &counters{client: client, tableName: counterTable},
	}
}

func (r *DynamoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	id, err := r.ids.next(ctx, "product")
	if err != nil {
		return err
	}
	product.ID = id

	av, err := attributevalue.MarshalMap(toProductRecord(product))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

func (r *DynamoProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            numberKey("product_id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if result.Item == nil {
		return nil, ErrProductNotFound
	}

	var rec productRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return rec.toDomain()
}

// Save writes the mutable fields of an existing product. The write is
// conditional on the version that was read, so a concurrent writer turns it
// into ErrProductConflict instead of being overwritten.
func (r *DynamoProductRepository) Save(ctx context.Context, product *domain.Product) error {
	updatedAt := time.Now()

	update := expression.Set(
		expression.Name("stock"), expression.Value(product.Stock),
	).Set(
		expression.Name("available"), expression.Value(product.Available),
	).Set(
		expression.Name("price"), expression.Value(product.Price.StringFixed(2)),
	).Set(
		expression.Name("updated_at"), expression.Value(updatedAt),
	).Set(
		expression.Name("version"), expression.Value(product.Version+1),
	)

	condition := expression.AttributeExists(expression.Name("product_id")).And(
		expression.Name("version").Equal(expression.Value(product.Version)),
	)

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return err
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       numberKey("product_id", product.ID),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),

		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// 항목이 없으면 존재하지 않는 상품, 있으면 다른 쓰기가 먼저 반영됨
			if len(ccf.Item) == 0 {
				return ErrProductNotFound
			}
			return ErrProductConflict
		}
		return fmt.Errorf("failed to update product %d: %w", product.ID, err)
	}

	product.Version++
	product.UpdatedAt = updatedAt
	return nil
}
