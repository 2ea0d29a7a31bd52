package ports

import (
	"context"
	"errors"
)

// Subscription is one billable account record. Records are provisioned
// out-of-band (admin API or operator tooling); the ingest path only ever
// reads them and debits quota.
type Subscription struct {
	MunchkinID string
	APIKey     string
	HasAPIKey  bool
	Quota      int64
}

// QuotaDecision is the outcome of a check-and-debit attempt. It is returned
// synchronously and never persisted.
type QuotaDecision struct {
	Allowed        bool
	Message        string
	UsedQuota      int64
	RemainingQuota int64
}

// StoredArtifact describes where a request payload snapshot was written.
type StoredArtifact struct {
	Filename string
	Bucket   string
	Key      string
	Path     string
}

var (
	// ErrMissingAccountID signals an empty account identifier before any
	// store lookup happens.
	ErrMissingAccountID = errors.New("missing account id")
	// ErrSubscriptionNotFound signals that no record exists for the id.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrNoAPIKeySet signals a record that exists but has no key configured.
	ErrNoAPIKeySet = errors.New("no api key set for subscription")
	// ErrInsufficientQuota signals a conditional debit that did not apply.
	ErrInsufficientQuota = errors.New("insufficient quota")
	// ErrSubscriptionExists signals a provisioning conflict.
	ErrSubscriptionExists = errors.New("subscription already exists")
)

// SubscriptionStore is the keyed account store. DebitIfAffordable must be
// atomic per account: two concurrent debits may never both apply against the
// same pre-debit balance.
type SubscriptionStore interface {
	Get(ctx context.Context, munchkinID string) (Subscription, error)
	// StoredAPIKey resolves the registered key for an account. Returns
	// ErrSubscriptionNotFound or ErrNoAPIKeySet when no key is available.
	StoredAPIKey(ctx context.Context, munchkinID string) (string, error)
	// DebitIfAffordable subtracts credits iff quota > credits (strict) and
	// returns the post-debit balance. Returns ErrInsufficientQuota when the
	// condition does not hold and ErrSubscriptionNotFound for unknown ids.
	DebitIfAffordable(ctx context.Context, munchkinID string, credits int64) (int64, error)
	Create(ctx context.Context, munchkinID, apiKey string, quota int64) (Subscription, error)
	AddCredits(ctx context.Context, munchkinID string, credits int64) (int64, error)
}

// ArtifactStore persists request payload snapshots. Writes are write-once;
// an existing key is an error, never an overwrite.
type ArtifactStore interface {
	Save(ctx context.Context, munchkinID string, body []byte) (StoredArtifact, error)
}

// Notifier tells the downstream processor where an artifact landed.
// Delivery is best-effort; implementations must not retry.
type Notifier interface {
	Notify(ctx context.Context, artifact StoredArtifact) error
}
