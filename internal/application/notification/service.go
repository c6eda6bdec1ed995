package notification

import (
	"context"
	"slices"
	"time"

	"github.com/go-notification-api/internal/domain"
	"github.com/go-notification-api/internal/pkg/id"
	"github.com/go-notification-api/internal/pkg/validate"
)

const (
	defaultTake              = 10
	maxTake                  = 100
	defaultLookupConcurrency = 8
)

type Service interface {
	Create(ctx context.Context, senderID *string, req domain.CreateNotificationRequest) (*domain.NotificationResponse, error)
	Update(ctx context.Context, notificationID string, req domain.UpdateNotificationRequest) (*domain.NotificationResponse, error)
	Delete(ctx context.Context, notificationID string) error
	Get(ctx context.Context, notificationID string) (*domain.NotificationResponse, error)
	List(ctx context.Context, q domain.ListQuery, userID string) (*domain.NotificationPage, error)
	SendEmail(ctx context.Context, req domain.SendEmailRequest) (*domain.SendResponse, error)
	SendText(ctx context.Context, req domain.SendTextRequest) (*domain.SendResponse, error)
	SendInApp(ctx context.Context, req domain.SendInAppRequest) (*domain.SendResponse, error)
}

type notificationStore interface {
	// Create writes the notification and its recipients atomically.
	Create(ctx context.Context, n *domain.Notification, recipients []domain.Recipient) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	Update(ctx context.Context, notificationID string, patch domain.UpdateNotificationRequest) error
	SoftDelete(ctx context.Context, notificationID string, at time.Time) error
	Count(ctx context.Context, f domain.NotificationFilter) (int, error)
	List(ctx context.Context, f domain.NotificationFilter, skip, take int) ([]domain.Notification, error)
}

type recipientStore interface {
	ListByNotification(ctx context.Context, notificationID string) ([]domain.Recipient, error)
}

// IdentityLookup resolves a user id to its profile over the identity RPC.
type IdentityLookup interface {
	Lookup(ctx context.Context, userID string) (*domain.Identity, error)
}

// Renderer turns a named template and its replacements into HTML.
type Renderer interface {
	Render(name string, replacements map[string]string) (string, error)
}

// Mailer transmits a rendered HTML email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

type service struct {
	notifications  notificationStore
	recipients     recipientStore
	enricher       *enricher
	renderer       Renderer
	mailer         Mailer
	scope          domain.ListScope
	includeDeleted bool
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	RecipientRepo    recipientStore
	Identity         IdentityLookup
	Renderer         Renderer
	Mailer           Mailer

	// ListScope decides whether a user's listing shows notifications they
	// received (default) or sent.
	ListScope          domain.ListScope
	ListIncludeDeleted bool
	LookupConcurrency  int
	LookupTimeout      time.Duration
}

func NewService(deps ServiceDeps) Service {
	limit := deps.LookupConcurrency
	if limit < 1 {
		limit = defaultLookupConcurrency
	}
	scope := deps.ListScope
	if scope != domain.ScopeSender {
		scope = domain.ScopeRecipient
	}
	return &service{
		notifications: deps.NotificationRepo,
		recipients:    deps.RecipientRepo,
		enricher: &enricher{
			lookup:  deps.Identity,
			limit:   limit,
			timeout: deps.LookupTimeout,
		},
		renderer:       deps.Renderer,
		mailer:         deps.Mailer,
		scope:          scope,
		includeDeleted: deps.ListIncludeDeleted,
	}
}

// Create resolves every identity before writing anything, and the store
// writes the notification with all its recipients or not at all.
func (s *service) Create(ctx context.Context, senderID *string, req domain.CreateNotificationRequest) (*domain.NotificationResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if senderID != nil && *senderID == "" {
		senderID = nil
	}

	ids := req.RecipientIDs
	if senderID != nil {
		ids = append(slices.Clone(ids), *senderID)
	}
	identities, err := s.enricher.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		Title:          req.Title,
		Body:           req.Body,
		Type:           req.Type,
		Subject:        req.Subject,
		SenderID:       senderID,
		ActionPayload:  map[string]any{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	recipients := make([]domain.Recipient, len(req.RecipientIDs))
	views := make([]domain.RecipientView, len(req.RecipientIDs))
	for i, recipientID := range req.RecipientIDs {
		recipients[i] = domain.Recipient{
			ID:             id.New(),
			NotificationID: n.NotificationID,
			RecipientID:    recipientID,
			CreatedAt:      now,
		}
		views[i] = domain.RecipientView{Recipient: recipients[i], User: identities[i]}
	}
	if err := s.notifications.Create(ctx, n, recipients); err != nil {
		return nil, domain.StoreErr("create notification", err)
	}

	resp := &domain.NotificationResponse{Notification: *n, Recipients: views}
	if senderID != nil {
		resp.Sender = identities[len(identities)-1]
	}
	return resp, nil
}

// Update changes title and body only. The existence check does not look at
// is_deleted, so soft-deleted notifications can still be edited.
func (s *service) Update(ctx context.Context, notificationID string, req domain.UpdateNotificationRequest) (*domain.NotificationResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.notifications.Get(ctx, notificationID); err != nil {
		return nil, domain.StoreErr("get notification", err)
	}
	if !req.Empty() {
		if err := s.notifications.Update(ctx, notificationID, req); err != nil {
			return nil, domain.StoreErr("update notification", err)
		}
	}
	return s.Get(ctx, notificationID)
}

func (s *service) Delete(ctx context.Context, notificationID string) error {
	return domain.StoreErr("delete notification", s.notifications.SoftDelete(ctx, notificationID, time.Now().UTC()))
}

func (s *service) Get(ctx context.Context, notificationID string) (*domain.NotificationResponse, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, domain.StoreErr("get notification", err)
	}
	views, err := s.assemble(ctx, []domain.Notification{*n})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) List(ctx context.Context, q domain.ListQuery, userID string) (*domain.NotificationPage, error) {
	if err := validate.Struct(q); err != nil {
		return nil, err
	}
	take := q.Take
	if take == 0 {
		take = defaultTake
	}
	if take > maxTake {
		take = maxTake
	}

	f := domain.NotificationFilter{SearchTerm: q.SearchTerm, IncludeDeleted: s.includeDeleted}
	if userID != "" {
		if s.scope == domain.ScopeSender {
			f.SenderID = userID
		} else {
			f.RecipientID = userID
		}
	}

	count, err := s.notifications.Count(ctx, f)
	if err != nil {
		return nil, domain.StoreErr("count notifications", err)
	}
	items, err := s.notifications.List(ctx, f, q.Skip, take)
	if err != nil {
		return nil, domain.StoreErr("list notifications", err)
	}
	data, err := s.assemble(ctx, items)
	if err != nil {
		return nil, err
	}
	return &domain.NotificationPage{Count: count, Data: data}, nil
}

// assemble loads the recipients of each notification and enriches the whole
// batch with a single resolve call, keeping store order throughout.
func (s *service) assemble(ctx context.Context, items []domain.Notification) ([]domain.NotificationResponse, error) {
	recipients := make([][]domain.Recipient, len(items))
	var ids []string
	for i := range items {
		rs, err := s.recipients.ListByNotification(ctx, items[i].NotificationID)
		if err != nil {
			return nil, domain.StoreErr("list recipients", err)
		}
		recipients[i] = rs
		for _, r := range rs {
			ids = append(ids, r.RecipientID)
		}
		if items[i].SenderID != nil {
			ids = append(ids, *items[i].SenderID)
		}
	}

	identities, err := s.enricher.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.NotificationResponse, 0, len(items))
	next := 0
	for i := range items {
		views := make([]domain.RecipientView, 0, len(recipients[i]))
		for _, r := range recipients[i] {
			views = append(views, domain.RecipientView{Recipient: r, User: identities[next]})
			next++
		}
		resp := domain.NotificationResponse{Notification: items[i], Recipients: views}
		if items[i].SenderID != nil {
			resp.Sender = identities[next]
			next++
		}
		out = append(out, resp)
	}
	return out, nil
}
