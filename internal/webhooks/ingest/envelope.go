package ingest

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Envelope is the inbound webhook payload. The raw body, not this struct,
// is what gets persisted, so unknown fields survive the snapshot untouched.
type Envelope struct {
	Token          string            `json:"token"`
	APICallBackKey string            `json:"apiCallBackKey"`
	CampaignID     json.Number       `json:"campaignId"`
	CallbackURL    string            `json:"callbackUrl"`
	Context        EnvelopeContext   `json:"context"`
	ObjectData     []json.RawMessage `json:"objectData"`
}

// EnvelopeContext carries the caller's subscription reference. The
// subscription object may be absent entirely; MunchkinID is nil-safe.
type EnvelopeContext struct {
	Subscription *SubscriptionRef `json:"subscription"`
}

// SubscriptionRef names the billable account.
type SubscriptionRef struct {
	MunchkinID string `json:"munchkinId"`
}

// MunchkinID returns the account identifier, or "" when the nested
// context.subscription object is missing.
func (e Envelope) MunchkinID() string {
	if e.Context.Subscription == nil {
		return ""
	}
	return e.Context.Subscription.MunchkinID
}

// ParseEnvelope decodes the payload into the typed schema. Malformed JSON is
// a typed parse error at the boundary; missing optional fields are not.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("invalid envelope: %w", err)
	}
	return env, nil
}
