package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notification-api/internal/domain"
)

// RecipientRepo stores recipient rows keyed by notification_id with the row
// id as sort key, so a notification's recipients come back in insertion order.
type RecipientRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRecipientRepo(client *dynamodb.Client, tableName string) *RecipientRepo {
	return &RecipientRepo{client: client, tableName: tableName}
}

func (r *RecipientRepo) ListByNotification(ctx context.Context, notificationID string) ([]domain.Recipient, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("#n = :n"),
		ExpressionAttributeNames:  map[string]string{"#n": fieldNotificationID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":n": &types.AttributeValueMemberS{Value: notificationID}},
		ScanIndexForward:          aws.Bool(true),
		ConsistentRead:            aws.Bool(true),
	})
	out := []domain.Recipient{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Recipient
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// notificationIDsFor returns the set of notifications addressed to recipientID.
func (r *RecipientRepo) notificationIDsFor(ctx context.Context, recipientID string) (map[string]struct{}, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexRecipient),
		KeyConditionExpression:    aws.String("#r = :r"),
		ProjectionExpression:      aws.String("#n"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldRecipientID, "#n": fieldNotificationID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": &types.AttributeValueMemberS{Value: recipientID}},
	})
	ids := make(map[string]struct{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if v, ok := item[fieldNotificationID].(*types.AttributeValueMemberS); ok {
				ids[v.Value] = struct{}{}
			}
		}
	}
	return ids, nil
}
