package dynamo

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notification-api/internal/domain"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET expression.
// Fields are emitted in key order so the same map always yields the same expression.
func buildUpdateExpr(updates map[string]interface{}) (updateExpr, error) {
	if len(updates) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := updateExpr{
		Expr:   "SET ",
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return ue, nil
}

// selectPage applies f to items, keeps only ids in allowed (when non-nil),
// orders by creation and returns the total match count with the requested window.
func selectPage(items []domain.Notification, f domain.NotificationFilter, allowed map[string]struct{}, skip, take int) (int, []domain.Notification) {
	matched := make([]domain.Notification, 0, len(items))
	for i := range items {
		if allowed != nil {
			if _, ok := allowed[items[i].NotificationID]; !ok {
				continue
			}
		}
		if f.Matches(&items[i]) {
			matched = append(matched, items[i])
		}
	}
	// Notification ids are monotonic ULIDs, so id order is creation order.
	sort.Slice(matched, func(a, b int) bool {
		return matched[a].NotificationID < matched[b].NotificationID
	})

	total := len(matched)
	if skip >= total {
		return total, []domain.Notification{}
	}
	end := total
	if take > 0 && skip+take < total {
		end = skip + take
	}
	return total, matched[skip:end]
}

// maxTransactItems is DynamoDB's per-transaction action limit.
const maxTransactItems = 100

// createItems builds the transaction that inserts a notification and its
// recipients. Fan-outs that do not fit one transaction are rejected.
func createItems(notificationsTable, recipientsTable string, n *domain.Notification, recipients []domain.Recipient) ([]types.TransactWriteItem, error) {
	if len(recipients)+1 > maxTransactItems {
		return nil, fmt.Errorf("%d recipients exceed the limit of %d per notification: %w",
			len(recipients), maxTransactItems-1, domain.ErrBadRequest)
	}
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	items := make([]types.TransactWriteItem, 0, len(recipients)+1)
	items = append(items, types.TransactWriteItem{Put: &types.Put{
		TableName:                aws.String(notificationsTable),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldNotificationID},
	}})
	for i := range recipients {
		rec, err := attributevalue.MarshalMap(&recipients[i])
		if err != nil {
			return nil, fmt.Errorf("marshal recipient: %w", err)
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(recipientsTable),
			Item:      rec,
		}})
	}
	return items, nil
}
