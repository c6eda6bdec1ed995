package domain

import "time"

type NotificationType string

const (
	NotificationTypeInApp NotificationType = "InApp"
	NotificationTypeEmail NotificationType = "Email"
)

// NotificationSubject is the semantic category of a notification, distinct
// from its delivery channel.
type NotificationSubject string

const (
	SubjectAuctionJoin   NotificationSubject = "AuctionJoin"
	SubjectAuctionThanks NotificationSubject = "AuctionThanks"
	SubjectAuctionWinner NotificationSubject = "AuctionWinner"
)

// Notification is a single message fanned out to one or more recipients.
// NotificationID, Type and Subject never change after creation.
type Notification struct {
	NotificationID string              `json:"id" dynamodbav:"notification_id"`
	Title          string              `json:"title" dynamodbav:"title"`
	Body           string              `json:"body" dynamodbav:"body"`
	Type           NotificationType    `json:"type" dynamodbav:"type"`
	Subject        NotificationSubject `json:"subject" dynamodbav:"subject"`
	SenderID       *string             `json:"senderId" dynamodbav:"sender_id,omitempty"`
	ActionPayload  map[string]any      `json:"actionPayload" dynamodbav:"action_payload"`
	IsDeleted      bool                `json:"isDeleted" dynamodbav:"is_deleted"`
	DeletedAt      *time.Time          `json:"deletedAt" dynamodbav:"deleted_at,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt      time.Time           `json:"updatedAt" dynamodbav:"updated_at"`
}

// Recipient is the delivery record linking a notification to one identity.
type Recipient struct {
	ID             string    `json:"id" dynamodbav:"id"`
	NotificationID string    `json:"notificationId" dynamodbav:"notification_id"`
	RecipientID    string    `json:"recipientId" dynamodbav:"recipient_id"`
	SeenByUser     bool      `json:"seenByUser" dynamodbav:"seen_by_user"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// RecipientView is a Recipient joined with the live identity of its user.
type RecipientView struct {
	Recipient
	User *Identity `json:"user"`
}

// NotificationResponse is the enriched projection returned by every read.
type NotificationResponse struct {
	Notification
	Sender     *Identity       `json:"sender,omitempty"`
	Recipients []RecipientView `json:"recipients"`
}

type NotificationPage struct {
	Count int                    `json:"count"`
	Data  []NotificationResponse `json:"data"`
}

type CreateNotificationRequest struct {
	Title        string              `json:"title" validate:"required"`
	Body         string              `json:"body" validate:"required"`
	Type         NotificationType    `json:"type" validate:"required,oneof=InApp Email"`
	Subject      NotificationSubject `json:"subject" validate:"required,oneof=AuctionJoin AuctionThanks AuctionWinner"`
	RecipientIDs []string            `json:"recipientIds" validate:"required,min=1,dive,required"`
}

// UpdateNotificationRequest doubles as the store patch: nil fields are left untouched.
type UpdateNotificationRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1"`
	Body  *string `json:"body" validate:"omitempty,min=1"`
}

func (r UpdateNotificationRequest) Empty() bool { return r.Title == nil && r.Body == nil }

type ListQuery struct {
	Skip       int    `json:"skip" validate:"gte=0"`
	Take       int    `json:"take" validate:"gte=0"`
	SearchTerm string `json:"searchTerm"`
}

// ListScope selects whose notifications a listing returns for a user.
type ListScope string

const (
	ScopeRecipient ListScope = "recipient"
	ScopeSender    ListScope = "sender"
)

// NotificationFilter is the predicate set the stores understand. Empty
// fields do not constrain the result.
type NotificationFilter struct {
	RecipientID    string
	SenderID       string
	SearchTerm     string
	IncludeDeleted bool
}

// Matches evaluates every predicate except recipient containment, which
// needs the recipient rows.
func (f NotificationFilter) Matches(n *Notification) bool {
	if !f.IncludeDeleted && n.IsDeleted {
		return false
	}
	if f.SenderID != "" && (n.SenderID == nil || *n.SenderID != f.SenderID) {
		return false
	}
	if f.SearchTerm != "" && n.Title != f.SearchTerm && n.Body != f.SearchTerm {
		return false
	}
	return true
}
