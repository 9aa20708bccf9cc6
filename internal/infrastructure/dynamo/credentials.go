package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/onepage-api/internal/domain"
)

// CredentialRepo provides typed DynamoDB operations for the credentials table.
// PK: email. Credentials are created only by PendingRepo.Promote.
type CredentialRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCredentialRepo(client *dynamodb.Client, tableName string) *CredentialRepo {
	return &CredentialRepo{client: client, tableName: tableName}
}

func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrUserNotFound
	}
	var c domain.Credential
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal credential: %w", err)
	}
	return &c, nil
}

// SetWallet links walletAddress to an existing credential.
func (r *CredentialRepo) SetWallet(ctx context.Context, email, walletAddress string) (*domain.Credential, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldWalletAddress: walletAddress,
		fieldUpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#pk"] = fieldEmail
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("set wallet: %w", err)
	}
	var c domain.Credential
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, fmt.Errorf("unmarshal credential: %w", err)
	}
	return &c, nil
}
