package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/authcore-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ArtifactRepo manages single-use verification artifacts.
// PK: identifier, SK: channel. DynamoDB TTL sweeps expired rows on expires_at.
type ArtifactRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewArtifactRepo(client *dynamodb.Client, tableName string) *ArtifactRepo {
	return &ArtifactRepo{client: client, tableName: tableName}
}

// Upsert writes the artifact, replacing any prior artifact for the same
// (identifier, channel) pair. The replaced secret is implicitly invalidated.
func (r *ArtifactRepo) Upsert(ctx context.Context, a *domain.VerificationArtifact) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put artifact: %w", domain.ErrUnavailable)
	}
	return nil
}

func (r *ArtifactRepo) Get(ctx context.Context, identifier string, channel domain.Channel) (*domain.VerificationArtifact, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey("identifier", identifier, "channel", string(channel)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", domain.ErrUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("artifact not found: %w", domain.ErrNotFound)
	}
	var a domain.VerificationArtifact
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteMatching deletes the artifact only while its stored secret still
// equals secret. Returns domain.ErrNotFound when the row is already gone or
// holds a different secret: the caller lost a consume race or the artifact
// was replaced by a newer issuance. This conditional delete is what makes the
// fetch-compare-delete sequence atomic across concurrent consumers.
func (r *ArtifactRepo) DeleteMatching(ctx context.Context, identifier string, channel domain.Channel, secret string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("identifier", identifier, "channel", string(channel)),
		ConditionExpression: aws.String("secret = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: secret},
		},
	})
	if err != nil {
		var ccfe *types.ConditionalCheckFailedException
		if errors.As(err, &ccfe) {
			return fmt.Errorf("artifact gone or replaced: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("delete artifact: %w", domain.ErrUnavailable)
	}
	return nil
}
