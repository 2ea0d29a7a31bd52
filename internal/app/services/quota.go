package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmelnik/ingestgate/internal/app/ports"
)

// QuotaLedger prices a batch and debits the account's prepaid balance. The
// debit itself is delegated to the store's conditional update so concurrent
// requests against one account can never jointly over-debit.
type QuotaLedger struct {
	store       ports.SubscriptionStore
	costPerUnit int64
	log         *slog.Logger
}

// NewQuotaLedger constructs a ledger charging costPerUnit credits per object.
func NewQuotaLedger(store ports.SubscriptionStore, costPerUnit int64, log *slog.Logger) *QuotaLedger {
	if log == nil {
		log = slog.Default()
	}
	return &QuotaLedger{store: store, costPerUnit: costPerUnit, log: log}
}

// CheckAndDebit decides whether a batch of unitCount objects is affordable
// and, if so, debits the account in the same decision. Store failures come
// back as a deny decision, never as an error or panic.
func (l *QuotaLedger) CheckAndDebit(ctx context.Context, munchkinID string, unitCount int64) ports.QuotaDecision {
	if strings.TrimSpace(munchkinID) == "" {
		return deny("Munchkin ID is required")
	}
	if unitCount < 1 {
		return deny("at least one object required")
	}

	creditsNeeded := unitCount * l.costPerUnit

	remaining, err := l.store.DebitIfAffordable(ctx, munchkinID, creditsNeeded)
	if err == nil {
		return ports.QuotaDecision{
			Allowed:        true,
			Message:        fmt.Sprintf("%d objects accepted", unitCount),
			UsedQuota:      creditsNeeded,
			RemainingQuota: remaining,
		}
	}

	switch {
	case errors.Is(err, ports.ErrSubscriptionNotFound), errors.Is(err, ports.ErrMissingAccountID):
		return deny("ID not found")
	case errors.Is(err, ports.ErrInsufficientQuota):
		return l.denyInsufficient(ctx, munchkinID)
	default:
		l.log.ErrorContext(ctx, "quota debit failed", "munchkin_id", munchkinID, "error", err)
		return deny("Internal Server Error")
	}
}

// denyInsufficient re-reads the balance to tell the caller how many objects
// it could still afford. The read is advisory; the authoritative check was
// the conditional debit that just refused.
func (l *QuotaLedger) denyInsufficient(ctx context.Context, munchkinID string) ports.QuotaDecision {
	sub, err := l.store.Get(ctx, munchkinID)
	if err != nil {
		if errors.Is(err, ports.ErrSubscriptionNotFound) {
			return deny("ID not found")
		}
		l.log.ErrorContext(ctx, "quota read failed", "munchkin_id", munchkinID, "error", err)
		return deny("Internal Server Error")
	}

	affordable := sub.Quota / l.costPerUnit
	return ports.QuotaDecision{
		Allowed:        false,
		Message:        fmt.Sprintf("Insufficient quota, only %d objects can be processed", affordable),
		RemainingQuota: sub.Quota,
	}
}

func deny(message string) ports.QuotaDecision {
	return ports.QuotaDecision{Allowed: false, Message: message}
}
