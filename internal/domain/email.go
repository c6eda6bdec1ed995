package domain

import "encoding/json"

// EmailEvent is an auction lifecycle event that triggers an email.
type EmailEvent string

const (
	EmailAuctionJoin   EmailEvent = "AUCTION_JOIN"
	EmailAuctionThanks EmailEvent = "AUCTION_THANX"
	EmailAuctionWinner EmailEvent = "AUCTION_WINNER"
)

// SendEmailRequest carries the event, the address to mail and the template
// fields in Body. RecipientIDs addresses the in-app record; when empty the
// caller's UserID is used.
type SendEmailRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	Type         EmailEvent      `json:"type" validate:"required,oneof=AUCTION_JOIN AUCTION_THANX AUCTION_WINNER"`
	Body         json.RawMessage `json:"body" validate:"required"`
	RecipientIDs []string        `json:"recipientIds" validate:"omitempty,dive,required"`
	UserID       *string         `json:"userId"`
}

type AuctionJoinEmail struct {
	ToName      string `json:"toName" validate:"required"`
	Company     string `json:"company" validate:"required"`
	CompanyLogo string `json:"companyLogo"`
	Product     string `json:"product" validate:"required"`
	AuctionHref string `json:"auctionHref" validate:"required"`
	AuctionChat string `json:"auctionChat"`
}

func (e AuctionJoinEmail) Replacements() map[string]string {
	return map[string]string{
		"toName":      e.ToName,
		"company":     e.Company,
		"companyLogo": e.CompanyLogo,
		"product":     e.Product,
		"auctionHref": e.AuctionHref,
		"auctionChat": e.AuctionChat,
	}
}

type AuctionThanksEmail struct {
	ToName      string `json:"toName" validate:"required"`
	Company     string `json:"company" validate:"required"`
	CompanyLogo string `json:"companyLogo"`
	Product     string `json:"product" validate:"required"`
	AuctionHref string `json:"auctionHref" validate:"required"`
}

func (e AuctionThanksEmail) Replacements() map[string]string {
	return map[string]string{
		"toName":      e.ToName,
		"company":     e.Company,
		"companyLogo": e.CompanyLogo,
		"product":     e.Product,
		"auctionHref": e.AuctionHref,
	}
}

type AuctionWinnerEmail struct {
	ToName      string `json:"toName" validate:"required"`
	Company     string `json:"company" validate:"required"`
	CompanyLogo string `json:"companyLogo"`
	Product     string `json:"product" validate:"required"`
	AuctionHref string `json:"auctionHref" validate:"required"`
	CompanyChat string `json:"companyChat"`
}

func (e AuctionWinnerEmail) Replacements() map[string]string {
	return map[string]string{
		"toName":      e.ToName,
		"company":     e.Company,
		"companyLogo": e.CompanyLogo,
		"product":     e.Product,
		"auctionHref": e.AuctionHref,
		"companyChat": e.CompanyChat,
	}
}

// SendResponse acknowledges a send request.
type SendResponse struct {
	Acknowledged  bool   `json:"acknowledged"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

type SendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type SendInAppRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}
