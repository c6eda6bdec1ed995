package identity

import (
	"encoding/json"
	"fmt"

	"github.com/go-notification-api/internal/domain"
)

// requestEnvelope is the message placed on the request queue. Data carries the
// JSON-encoded arguments as a string, which is what the identity service expects.
type requestEnvelope struct {
	ID      string `json:"id"`
	Pattern string `json:"pattern"`
	Data    string `json:"data"`
	ReplyTo string `json:"replyTo"`
}

type replyEnvelope struct {
	ID         string           `json:"id"`
	Response   *domain.Identity `json:"response"`
	Err        *string          `json:"err"`
	IsDisposed bool             `json:"isDisposed"`
}

func encodeRequest(id, replyTo, userID string) ([]byte, error) {
	args, err := json.Marshal(lookupRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(requestEnvelope{
		ID:      id,
		Pattern: lookupPattern,
		Data:    string(args),
		ReplyTo: replyTo,
	})
}

func decodeReply(wantID string, raw []byte) (*domain.Identity, error) {
	var rep replyEnvelope
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode lookup reply: %w", err)
	}
	if rep.ID != wantID {
		return nil, fmt.Errorf("lookup reply for %q, want %q", rep.ID, wantID)
	}
	if rep.Err != nil {
		return nil, fmt.Errorf("identity service: %s", *rep.Err)
	}
	return rep.Response, nil
}
