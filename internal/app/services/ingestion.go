package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmelnik/ingestgate/internal/app/ports"
)

// IngestionService sequences the webhook lifecycle: resolve stored key,
// authenticate, check-and-debit, persist, then hand the artifact to the
// notifier on a detached goroutine. Every step before persist is side-effect
// free on rejection.
type IngestionService struct {
	store     ports.SubscriptionStore
	ledger    *QuotaLedger
	artifacts ports.ArtifactStore
	notifier  ports.Notifier
	log       *slog.Logger
}

// NewIngestionService wires the orchestrator. notifier may be nil, which
// disables the downstream notification step.
func NewIngestionService(store ports.SubscriptionStore, ledger *QuotaLedger, artifacts ports.ArtifactStore, notifier ports.Notifier, log *slog.Logger) *IngestionService {
	if log == nil {
		log = slog.Default()
	}
	return &IngestionService{
		store:     store,
		ledger:    ledger,
		artifacts: artifacts,
		notifier:  notifier,
		log:       log,
	}
}

// Authorize resolves the account's stored key and runs the auth gate against
// the presented one. An unknown account or an account without a key behaves
// like any other mismatch: the presented credential is invalid.
func (s *IngestionService) Authorize(ctx context.Context, munchkinID, presentedKey string) error {
	stored, err := s.store.StoredAPIKey(ctx, munchkinID)
	if err != nil {
		if errors.Is(err, ports.ErrSubscriptionNotFound) ||
			errors.Is(err, ports.ErrNoAPIKeySet) ||
			errors.Is(err, ports.ErrMissingAccountID) {
			stored = ""
		} else {
			return err
		}
	}
	return Authenticate(presentedKey, stored)
}

// CheckAndDebit prices the batch and debits the account.
func (s *IngestionService) CheckAndDebit(ctx context.Context, munchkinID string, unitCount int64) ports.QuotaDecision {
	return s.ledger.CheckAndDebit(ctx, munchkinID, unitCount)
}

// Persist snapshots the raw request body to blob storage.
func (s *IngestionService) Persist(ctx context.Context, munchkinID string, body []byte) (ports.StoredArtifact, error) {
	return s.artifacts.Save(ctx, munchkinID, body)
}

// NotifyAsync fires the downstream notification without blocking the caller.
// The goroutine's only output is a log line; nothing feeds back into the
// request, and delivery is lost if the process exits first (accepted:
// best-effort by contract, no retry).
func (s *IngestionService) NotifyAsync(artifact ports.StoredArtifact) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.Notify(context.Background(), artifact); err != nil {
			s.log.Error("downstream notification failed",
				"path", artifact.Path, "error", err)
			return
		}
		s.log.Debug("downstream notified", "path", artifact.Path)
	}()
}
