package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/authcore-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UserRepo provides typed DynamoDB operations for the users table.
// Uniqueness of email and phone is enforced through marker rows in the
// identities table (PK: identity_key = "email#<addr>" | "phone#<e164>"),
// written transactionally with the user row.
type UserRepo struct {
	client          *dynamodb.Client
	tableName       string
	identitiesTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, identitiesTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, identitiesTable: identitiesTable}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.UserRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", domain.ErrUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.UserRecord
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	return r.queryGSI(ctx, "email-index", "email", email)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.UserRecord, error) {
	return r.queryGSI(ctx, "phone-index", "phone", phone)
}

// Insert writes the user row together with a uniqueness marker for its
// matching key (email or phone) in one transaction. If another writer claimed
// the same key first, the marker's attribute_not_exists condition cancels the
// transaction and Insert returns domain.ErrConflict, and the caller retries as a
// lookup.
func (r *UserRepo) Insert(ctx context.Context, u *domain.UserRecord) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	key := identityKey(u)
	if key == "" {
		return fmt.Errorf("user has neither email nor phone: %w", domain.ErrBadRequest)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName: aws.String(r.identitiesTable),
					Item: map[string]types.AttributeValue{
						"identity_key": &types.AttributeValueMemberS{Value: key},
						"user_id":      &types.AttributeValueMemberS{Value: u.UserID},
					},
					ConditionExpression: aws.String("attribute_not_exists(identity_key)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item:      item,
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return fmt.Errorf("identity already claimed: %w", domain.ErrConflict)
				}
			}
		}
		return fmt.Errorf("insert user: %w", domain.ErrUnavailable)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("update user: %w", domain.ErrUnavailable)
	}
	return nil
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.UserRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", index, domain.ErrUnavailable)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.UserRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// identityKey derives the uniqueness-marker key from the user's matching key.
// Exactly one of email/phone is set at creation time.
func identityKey(u *domain.UserRecord) string {
	if u.Email != nil {
		return "email#" + *u.Email
	}
	if u.Phone != nil {
		return "phone#" + *u.Phone
	}
	return ""
}
