package dynamo

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notification-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"title": "Lot 7"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "title"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"updated_at": "2026-01-01T00:00:00Z",
		"body":       "Bidding opens at noon",
		"title":      "Lot 7",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	assert.Equal(t, "body", ue1.Names["#f0"])
	assert.Equal(t, "title", ue1.Names["#f1"])
	assert.Equal(t, "updated_at", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"is_deleted": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func pageFixture() []domain.Notification {
	seller := "seller"
	// Deliberately out of order; scans return items in hash order.
	return []domain.Notification{
		{NotificationID: "03", Title: "Lot 7", Body: "b"},
		{NotificationID: "01", Title: "Lot 1", Body: "b", SenderID: &seller},
		{NotificationID: "02", Title: "Lot 2", Body: "Lot 7", IsDeleted: true},
		{NotificationID: "04", Title: "Lot 4", Body: "b"},
	}
}

func TestSelectPage_OrdersAndCountsBeforeWindow(t *testing.T) {
	total, got := selectPage(pageFixture(), domain.NotificationFilter{}, nil, 1, 2)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "03", got[0].NotificationID)
	assert.Equal(t, "04", got[1].NotificationID)
}

func TestSelectPage_SearchAndDeleted(t *testing.T) {
	total, got := selectPage(pageFixture(), domain.NotificationFilter{SearchTerm: "Lot 7"}, nil, 0, 10)
	assert.Equal(t, 1, total)
	assert.Equal(t, "03", got[0].NotificationID)

	total, _ = selectPage(pageFixture(), domain.NotificationFilter{SearchTerm: "Lot 7", IncludeDeleted: true}, nil, 0, 10)
	assert.Equal(t, 2, total)
}

func TestSelectPage_AllowedSet(t *testing.T) {
	allowed := map[string]struct{}{"01": {}, "04": {}}
	total, got := selectPage(pageFixture(), domain.NotificationFilter{}, allowed, 0, 10)
	assert.Equal(t, 2, total)
	assert.Equal(t, "01", got[0].NotificationID)
}

func TestSelectPage_SkipPastEnd(t *testing.T) {
	total, got := selectPage(pageFixture(), domain.NotificationFilter{}, nil, 50, 10)
	assert.Equal(t, 3, total)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBootstrapTables_Keys(t *testing.T) {
	rt := recipientsTable("recipients")
	require.Len(t, rt.KeySchema, 2)
	assert.Equal(t, "notification_id", *rt.KeySchema[0].AttributeName)
	assert.Equal(t, types.KeyTypeRange, rt.KeySchema[1].KeyType)
	assert.Equal(t, indexRecipient, *rt.GlobalSecondaryIndexes[0].IndexName)

	nt := notificationsTable("notifications")
	assert.Equal(t, indexSender, *nt.GlobalSecondaryIndexes[0].IndexName)
}

func TestCreateItems_OneTransaction(t *testing.T) {
	n := &domain.Notification{NotificationID: "n1", Title: "Lot 7", ActionPayload: map[string]any{}}
	recipients := []domain.Recipient{
		{ID: "r1", NotificationID: "n1", RecipientID: "a"},
		{ID: "r2", NotificationID: "n1", RecipientID: "b"},
	}

	items, err := createItems("notifications", "recipients", n, recipients)
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.NotNil(t, items[0].Put)
	assert.Equal(t, "notifications", *items[0].Put.TableName)
	assert.Equal(t, "attribute_not_exists(#id)", *items[0].Put.ConditionExpression)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "n1"}, items[0].Put.Item["notification_id"])

	for i, want := range []string{"a", "b"} {
		put := items[i+1].Put
		require.NotNil(t, put)
		assert.Equal(t, "recipients", *put.TableName)
		assert.Equal(t, &types.AttributeValueMemberS{Value: want}, put.Item["recipient_id"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "n1"}, put.Item["notification_id"])
	}
}

func TestCreateItems_RejectsOversizedFanOut(t *testing.T) {
	n := &domain.Notification{NotificationID: "n1"}

	fits := make([]domain.Recipient, maxTransactItems-1)
	_, err := createItems("notifications", "recipients", n, fits)
	require.NoError(t, err)

	tooMany := make([]domain.Recipient, maxTransactItems)
	_, err = createItems("notifications", "recipients", n, tooMany)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}
