package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jmelnik/ingestgate/internal/app/ports"
)

// fakeStore is an in-memory SubscriptionStore with the same conditional
// debit semantics as the SQLite adapter.
type fakeStore struct {
	mu     sync.Mutex
	subs   map[string]ports.Subscription
	failed error
}

func newFakeStore(subs ...ports.Subscription) *fakeStore {
	s := &fakeStore{subs: make(map[string]ports.Subscription)}
	for _, sub := range subs {
		s.subs[sub.MunchkinID] = sub
	}
	return s
}

func (s *fakeStore) Get(ctx context.Context, id string) (ports.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return ports.Subscription{}, s.failed
	}
	sub, ok := s.subs[id]
	if !ok {
		return ports.Subscription{}, ports.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *fakeStore) StoredAPIKey(ctx context.Context, id string) (string, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !sub.HasAPIKey {
		return "", ports.ErrNoAPIKeySet
	}
	return sub.APIKey, nil
}

func (s *fakeStore) DebitIfAffordable(ctx context.Context, id string, credits int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return 0, s.failed
	}
	sub, ok := s.subs[id]
	if !ok {
		return 0, ports.ErrSubscriptionNotFound
	}
	if sub.Quota <= credits {
		return 0, ports.ErrInsufficientQuota
	}
	sub.Quota -= credits
	s.subs[id] = sub
	return sub.Quota, nil
}

func (s *fakeStore) Create(ctx context.Context, id, apiKey string, quota int64) (ports.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; ok {
		return ports.Subscription{}, ports.ErrSubscriptionExists
	}
	sub := ports.Subscription{MunchkinID: id, APIKey: apiKey, HasAPIKey: apiKey != "", Quota: quota}
	s.subs[id] = sub
	return sub, nil
}

func (s *fakeStore) AddCredits(ctx context.Context, id string, credits int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return 0, ports.ErrSubscriptionNotFound
	}
	sub.Quota += credits
	s.subs[id] = sub
	return sub.Quota, nil
}

var _ ports.SubscriptionStore = (*fakeStore)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckAndDebitAllows(t *testing.T) {
	t.Parallel()

	store := newFakeStore(ports.Subscription{MunchkinID: "M1", Quota: 10})
	ledger := NewQuotaLedger(store, 2, discardLogger())

	decision := ledger.CheckAndDebit(context.Background(), "M1", 3)
	if !decision.Allowed {
		t.Fatalf("expected allow, got deny: %q", decision.Message)
	}
	if decision.UsedQuota != 6 {
		t.Fatalf("expected used quota 6, got %d", decision.UsedQuota)
	}
	if decision.RemainingQuota != 4 {
		t.Fatalf("expected remaining quota 4, got %d", decision.RemainingQuota)
	}
}

func TestCheckAndDebitStrictBoundary(t *testing.T) {
	t.Parallel()

	// quota == creditsNeeded must be rejected.
	store := newFakeStore(ports.Subscription{MunchkinID: "M1", Quota: 6})
	ledger := NewQuotaLedger(store, 2, discardLogger())

	decision := ledger.CheckAndDebit(context.Background(), "M1", 3)
	if decision.Allowed {
		t.Fatal("expected deny when quota equals cost")
	}
	if decision.Message != "Insufficient quota, only 3 objects can be processed" {
		t.Fatalf("unexpected message %q", decision.Message)
	}
	if decision.RemainingQuota != 6 {
		t.Fatalf("quota must be unchanged, got %d", decision.RemainingQuota)
	}
}

func TestCheckAndDebitInsufficient(t *testing.T) {
	t.Parallel()

	store := newFakeStore(ports.Subscription{MunchkinID: "M1", Quota: 4})
	ledger := NewQuotaLedger(store, 2, discardLogger())

	decision := ledger.CheckAndDebit(context.Background(), "M1", 3)
	if decision.Allowed {
		t.Fatal("expected deny")
	}
	if decision.Message != "Insufficient quota, only 2 objects can be processed" {
		t.Fatalf("unexpected message %q", decision.Message)
	}
	if decision.RemainingQuota != 4 {
		t.Fatalf("quota must be unchanged, got %d", decision.RemainingQuota)
	}
}

func TestCheckAndDebitSequentialReflectsUpdatedBalance(t *testing.T) {
	t.Parallel()

	store := newFakeStore(ports.Subscription{MunchkinID: "M1", Quota: 10})
	ledger := NewQuotaLedger(store, 2, discardLogger())

	first := ledger.CheckAndDebit(context.Background(), "M1", 3)
	if !first.Allowed || first.RemainingQuota != 4 {
		t.Fatalf("unexpected first decision: %+v", first)
	}

	second := ledger.CheckAndDebit(context.Background(), "M1", 3)
	if second.Allowed {
		t.Fatal("second debit must see the post-debit balance and deny")
	}
	if second.RemainingQuota != 4 {
		t.Fatalf("expected remaining 4, got %d", second.RemainingQuota)
	}
}

func TestCheckAndDebitValidation(t *testing.T) {
	t.Parallel()

	store := newFakeStore(ports.Subscription{MunchkinID: "M1", Quota: 10})
	ledger := NewQuotaLedger(store, 2, discardLogger())

	if d := ledger.CheckAndDebit(context.Background(), "", 3); d.Allowed || d.Message != "Munchkin ID is required" {
		t.Fatalf("unexpected decision for empty id: %+v", d)
	}
	if d := ledger.CheckAndDebit(context.Background(), "M1", 0); d.Allowed || d.Message != "at least one object required" {
		t.Fatalf("unexpected decision for empty batch: %+v", d)
	}
	if d := ledger.CheckAndDebit(context.Background(), "nope", 1); d.Allowed || d.Message != "ID not found" {
		t.Fatalf("unexpected decision for unknown id: %+v", d)
	}
}

func TestCheckAndDebitStoreFailureIsSafeDeny(t *testing.T) {
	t.Parallel()

	store := newFakeStore(ports.Subscription{MunchkinID: "M1", Quota: 10})
	store.failed = errors.New("connection reset")
	ledger := NewQuotaLedger(store, 2, discardLogger())

	decision := ledger.CheckAndDebit(context.Background(), "M1", 3)
	if decision.Allowed {
		t.Fatal("expected deny on store failure")
	}
	if decision.Message != "Internal Server Error" {
		t.Fatalf("unexpected message %q", decision.Message)
	}
}
