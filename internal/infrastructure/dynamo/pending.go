package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/onepage-api/internal/config"
	"github.com/onepage-api/internal/domain"
)

// promoteAttempts bounds retries of a promotion that lost a TransactionConflict.
// The conditions make a retry safe: it either succeeds or fails on them.
const promoteAttempts = 3

// PendingRepo manages pending registrations and their promotion to credentials.
// PK: email. expires_at is a Unix timestamp used as DynamoDB TTL.
type PendingRepo struct {
	client *dynamodb.Client
	tables config.DynamoTables
}

func NewPendingRepo(client *dynamodb.Client, tables config.DynamoTables) *PendingRepo {
	return &PendingRepo{client: client, tables: tables}
}

// Put writes p, replacing any pending record for the same email, unless the
// email or username already belongs to a credential. The checks and the write
// form one transaction.
func (r *PendingRepo) Put(ctx context.Context, p *domain.PendingRegistration) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pending registration: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{ConditionCheck: &types.ConditionCheck{
				TableName:                aws.String(r.tables.Credentials),
				Key:                      strKey(fieldEmail, p.Email),
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldEmail},
			}},
			{ConditionCheck: &types.ConditionCheck{
				TableName:                aws.String(r.tables.UniqueKeys),
				Key:                      strKey(fieldUniqueKey, guardCredentialUsername+p.Username),
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldUniqueKey},
			}},
			{Put: &types.Put{
				TableName: aws.String(r.tables.PendingRegistrations),
				Item:      item,
			}},
		},
	})
	if err == nil {
		return nil
	}
	switch failedItem(cancellationReasons(err)) {
	case 0:
		return domain.ErrDuplicateEmail
	case 1:
		return domain.ErrDuplicateUsername
	}
	return fmt.Errorf("put pending registration: %w", err)
}

func (r *PendingRepo) Get(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tables.PendingRegistrations),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get pending registration: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrPendingNotFound
	}
	var p domain.PendingRegistration
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending registration: %w", err)
	}
	return &p, nil
}

// Reissue replaces the code and expiry of a pending record that is still live at now.
func (r *PendingRepo) Reissue(ctx context.Context, email, code string, expiresAt, now int64) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tables.PendingRegistrations),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("SET #c = :c, #e = :e"),
		ConditionExpression: aws.String("attribute_exists(#pk) AND #e > :now"),
		ExpressionAttributeNames: map[string]string{
			"#pk": fieldEmail,
			"#c":  fieldVerificationCode,
			"#e":  fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":   str(code),
			":e":   num(expiresAt),
			":now": num(now),
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return domain.ErrPendingNotFound
		}
		return fmt.Errorf("reissue pending registration: %w", err)
	}
	return nil
}

// DeleteIfExpiresAt removes the record only while it still carries expiresAt,
// so a record re-issued in the meantime survives.
func (r *PendingRepo) DeleteIfExpiresAt(ctx context.Context, email string, expiresAt int64) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tables.PendingRegistrations),
		Key:                       strKey(fieldEmail, email),
		ConditionExpression:       aws.String("#e = :e"),
		ExpressionAttributeNames:  map[string]string{"#e": fieldExpiresAt},
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": num(expiresAt)},
	})
	if err != nil {
		if isConditionFailed(err) {
			return domain.ErrPendingNotFound
		}
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

// Promote consumes p and creates c in one transaction: the pending record is
// deleted only if it still holds the code and expiry that were checked, the
// credential only if the email is free, and the username guard only if the
// username is free. A second concurrent promotion of the same record fails
// the first condition and reports ErrPendingNotFound.
func (r *PendingRepo) Promote(ctx context.Context, p *domain.PendingRegistration, c *domain.Credential) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(r.tables.PendingRegistrations),
				Key:                 strKey(fieldEmail, p.Email),
				ConditionExpression: aws.String("#c = :c AND #e = :e"),
				ExpressionAttributeNames: map[string]string{
					"#c": fieldVerificationCode,
					"#e": fieldExpiresAt,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":c": str(p.VerificationCode),
					":e": num(p.ExpiresAt),
				},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tables.Credentials),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldEmail},
			}},
			{Put: &types.Put{
				TableName: aws.String(r.tables.UniqueKeys),
				Item: map[string]types.AttributeValue{
					fieldUniqueKey: str(guardCredentialUsername + c.Username),
					fieldOwner:     str(c.Email),
				},
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldUniqueKey},
			}},
		},
	}

	for attempt := 1; ; attempt++ {
		_, err = r.client.TransactWriteItems(ctx, input)
		if err == nil {
			return nil
		}
		reasons := cancellationReasons(err)
		switch failedItem(reasons) {
		case 0:
			return domain.ErrPendingNotFound
		case 1:
			return domain.ErrDuplicateEmail
		case 2:
			return domain.ErrDuplicateUsername
		}
		if !conflicted(reasons) || attempt == promoteAttempts {
			return fmt.Errorf("promote pending registration: %w", err)
		}
	}
}

// ListExpired returns every pending record whose expiry is at or before now.
func (r *PendingRepo) ListExpired(ctx context.Context, now int64) ([]domain.PendingRegistration, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tables.PendingRegistrations),
		FilterExpression:          aws.String("#e <= :now"),
		ExpressionAttributeNames:  map[string]string{"#e": fieldExpiresAt},
		ExpressionAttributeValues: map[string]types.AttributeValue{":now": num(now)},
	})
	var expired []domain.PendingRegistration
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan pending registrations: %w", err)
		}
		var items []domain.PendingRegistration
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal pending registrations: %w", err)
		}
		expired = append(expired, items...)
	}
	return expired, nil
}
