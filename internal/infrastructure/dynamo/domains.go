package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/onepage-api/internal/domain"
)

// DomainRepo provides typed DynamoDB operations for the domains table.
// PK: domain. GSI username-index. One domain per username, held by a guard item.
type DomainRepo struct {
	client          *dynamodb.Client
	tableName       string
	uniqueTableName string
}

func NewDomainRepo(client *dynamodb.Client, tableName, uniqueTableName string) *DomainRepo {
	return &DomainRepo{client: client, tableName: tableName, uniqueTableName: uniqueTableName}
}

// Create stores d if neither its domain nor its username is registered yet.
func (r *DomainRepo) Create(ctx context.Context, d *domain.DomainConfig) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal domain: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldDomain},
			}},
			{Put: &types.Put{
				TableName: aws.String(r.uniqueTableName),
				Item: map[string]types.AttributeValue{
					fieldUniqueKey: str(guardDomainUsername + d.Username),
					fieldOwner:     str(d.Domain),
				},
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldUniqueKey},
			}},
		},
	})
	if err == nil {
		return nil
	}
	switch failedItem(cancellationReasons(err)) {
	case 0:
		return domain.ErrDomainTaken
	case 1:
		return domain.ErrDomainOwnerTaken
	}
	return fmt.Errorf("create domain: %w", err)
}

func (r *DomainRepo) ListByUsername(ctx context.Context, username string) ([]domain.DomainConfig, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(usernameIndex),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldUsername},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": str(username)},
	})
	if err != nil {
		return nil, fmt.Errorf("query domains: %w", err)
	}
	domains := make([]domain.DomainConfig, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &domains); err != nil {
		return nil, fmt.Errorf("unmarshal domains: %w", err)
	}
	return domains, nil
}
