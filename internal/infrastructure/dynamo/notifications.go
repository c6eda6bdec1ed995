package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notification-api/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client     *dynamodb.Client
	tableName  string
	recipients *RecipientRepo
}

func NewNotificationRepo(client *dynamodb.Client, tableName string, recipients *RecipientRepo) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName, recipients: recipients}
}

// Ping checks that the notifications table is reachable.
func (r *NotificationRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tableName)})
	return err
}

// Create writes the notification and its recipient rows in one
// TransactWriteItems call, so either all of them exist or none do.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification, recipients []domain.Recipient) error {
	items, err := createItems(r.tableName, r.recipients.tableName, n, recipients)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldNotificationID, notificationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) Update(ctx context.Context, notificationID string, patch domain.UpdateNotificationRequest) error {
	updates := map[string]interface{}{fieldUpdatedAt: time.Now().UTC()}
	if patch.Title != nil {
		updates[fieldTitle] = *patch.Title
	}
	if patch.Body != nil {
		updates[fieldBody] = *patch.Body
	}
	return r.updateExisting(ctx, notificationID, updates)
}

func (r *NotificationRepo) SoftDelete(ctx context.Context, notificationID string, at time.Time) error {
	return r.updateExisting(ctx, notificationID, map[string]interface{}{
		fieldIsDeleted: true,
		fieldDeletedAt: at,
		fieldUpdatedAt: at,
	})
}

// updateExisting applies updates only when the item is present, so an
// unknown id never creates a partial item.
func (r *NotificationRepo) updateExisting(ctx context.Context, notificationID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldNotificationID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return err
}

func (r *NotificationRepo) Count(ctx context.Context, f domain.NotificationFilter) (int, error) {
	total, _, err := r.page(ctx, f, 0, 0)
	return total, err
}

func (r *NotificationRepo) List(ctx context.Context, f domain.NotificationFilter, skip, take int) ([]domain.Notification, error) {
	_, items, err := r.page(ctx, f, skip, take)
	return items, err
}

// page narrows the candidate set with an index where the filter allows it and
// evaluates the remaining predicates in memory.
func (r *NotificationRepo) page(ctx context.Context, f domain.NotificationFilter, skip, take int) (int, []domain.Notification, error) {
	var allowed map[string]struct{}
	if f.RecipientID != "" {
		ids, err := r.recipients.notificationIDsFor(ctx, f.RecipientID)
		if err != nil {
			return 0, nil, err
		}
		if len(ids) == 0 {
			return 0, []domain.Notification{}, nil
		}
		allowed = ids
	}

	var (
		items []domain.Notification
		err   error
	)
	if f.SenderID != "" {
		items, err = r.queryBySender(ctx, f.SenderID)
	} else {
		items, err = r.scanAll(ctx)
	}
	if err != nil {
		return 0, nil, err
	}
	total, window := selectPage(items, f, allowed, skip, take)
	return total, window, nil
}

func (r *NotificationRepo) queryBySender(ctx context.Context, senderID string) ([]domain.Notification, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexSender),
		KeyConditionExpression:    aws.String("#s = :s"),
		ExpressionAttributeNames:  map[string]string{"#s": fieldSenderID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":s": &types.AttributeValueMemberS{Value: senderID}},
	})
	var out []domain.Notification
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (r *NotificationRepo) scanAll(ctx context.Context) ([]domain.Notification, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	var out []domain.Notification
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}
