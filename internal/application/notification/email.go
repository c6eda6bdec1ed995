package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-notification-api/internal/domain"
	"github.com/go-notification-api/internal/pkg/validate"
)

// Template names shared with the renderer's template set.
const (
	TemplateJoin   = "join.html"
	TemplateThanks = "thanx.html"
	TemplateWinner = "winner.html"
)

type emailEvent struct {
	subject  domain.NotificationSubject
	template string
	title    string
	// subjectLine is a format string taking the product name.
	subjectLine string
	decode      func(json.RawMessage) (map[string]string, error)
}

var emailEvents = map[domain.EmailEvent]emailEvent{
	domain.EmailAuctionJoin: {
		subject:     domain.SubjectAuctionJoin,
		template:    TemplateJoin,
		title:       "Приглашение на аукцион",
		subjectLine: "Вы приглашены для участия в аукционе на лот «%s»",
		decode:      decodeBody[domain.AuctionJoinEmail],
	},
	domain.EmailAuctionThanks: {
		subject:     domain.SubjectAuctionThanks,
		template:    TemplateThanks,
		title:       "Аукцион завершен",
		subjectLine: "Аукцион на «%s» завершен.",
		decode:      decodeBody[domain.AuctionThanksEmail],
	},
	domain.EmailAuctionWinner: {
		subject:     domain.SubjectAuctionWinner,
		template:    TemplateWinner,
		title:       "Победа в аукционе",
		subjectLine: "Поздравляем! Вы выиграли наш аукцион на лот «%s».",
		decode:      decodeBody[domain.AuctionWinnerEmail],
	},
}

type templateBody interface {
	Replacements() map[string]string
}

func decodeBody[T templateBody](raw json.RawMessage) (map[string]string, error) {
	var body T
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("invalid email body: %w", domain.ErrBadRequest)
	}
	if err := validate.Struct(body); err != nil {
		return nil, err
	}
	return body.Replacements(), nil
}

// SendEmail records an in-app notification for the event and then mails the
// event's template. Nothing is mailed when the record cannot be created; a
// failed email after the record exists is reported as a DeliveryError.
func (s *service) SendEmail(ctx context.Context, req domain.SendEmailRequest) (*domain.SendResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ev, ok := emailEvents[req.Type]
	if !ok {
		return nil, fmt.Errorf("unknown email type %q: %w", req.Type, domain.ErrBadRequest)
	}
	replacements, err := ev.decode(req.Body)
	if err != nil {
		return nil, err
	}

	recipients := req.RecipientIDs
	if len(recipients) == 0 && req.UserID != nil && *req.UserID != "" {
		recipients = []string{*req.UserID}
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipientIds or userId required: %w", domain.ErrBadRequest)
	}

	subjectLine := fmt.Sprintf(ev.subjectLine, replacements["product"])
	created, err := s.Create(ctx, nil, domain.CreateNotificationRequest{
		Title:        ev.title,
		Body:         subjectLine,
		Type:         domain.NotificationTypeInApp,
		Subject:      ev.subject,
		RecipientIDs: recipients,
	})
	if err != nil {
		return nil, err
	}

	html, err := s.renderer.Render(ev.template, replacements)
	if err != nil {
		return nil, s.deliveryFailed(created.NotificationID, mark(domain.ErrTemplate, err))
	}
	if err := s.mailer.SendEmail(ctx, req.Email, subjectLine, html); err != nil {
		return nil, s.deliveryFailed(created.NotificationID, mark(domain.ErrTransport, err))
	}

	return &domain.SendResponse{
		Acknowledged:  true,
		Status:        "OK",
		TransactionID: created.NotificationID,
	}, nil
}

func (s *service) deliveryFailed(notificationID string, err error) error {
	slog.Warn("email not delivered", "notification_id", notificationID, "err", err)
	return &domain.DeliveryError{NotificationID: notificationID, Err: err}
}

// mark makes err match kind without losing its own chain.
func mark(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// SendText acknowledges without delivering; SMS is not wired.
func (s *service) SendText(_ context.Context, _ domain.SendTextRequest) (*domain.SendResponse, error) {
	return stubAck(), nil
}

// SendInApp acknowledges without delivering; push is not wired.
func (s *service) SendInApp(_ context.Context, _ domain.SendInAppRequest) (*domain.SendResponse, error) {
	return stubAck(), nil
}

func stubAck() *domain.SendResponse {
	return &domain.SendResponse{Acknowledged: true, Status: "OK", TransactionID: "test"}
}
