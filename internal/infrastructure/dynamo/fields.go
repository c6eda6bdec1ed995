package dynamo

// DynamoDB attribute names used in key conditions and update expressions.
const (
	fieldNotificationID = "notification_id"
	fieldRecipientID    = "recipient_id"
	fieldSenderID       = "sender_id"
	fieldID             = "id"
	fieldTitle          = "title"
	fieldBody           = "body"
	fieldIsDeleted      = "is_deleted"
	fieldDeletedAt      = "deleted_at"
	fieldUpdatedAt      = "updated_at"
)

const (
	indexSender    = "sender_id-index"
	indexRecipient = "recipient_id-index"
)
