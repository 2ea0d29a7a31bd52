package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmelnik/ingestgate/internal/app/ports"
	"github.com/jmelnik/ingestgate/internal/db"
)

type subscriptionStore struct {
	db *db.Database
}

// NewSubscriptionStore wraps the shared database as a ports.SubscriptionStore.
func NewSubscriptionStore(database *db.Database) ports.SubscriptionStore {
	return &subscriptionStore{db: database}
}

func (s *subscriptionStore) Get(ctx context.Context, munchkinID string) (ports.Subscription, error) {
	if strings.TrimSpace(munchkinID) == "" {
		return ports.Subscription{}, ports.ErrMissingAccountID
	}

	row, err := s.db.GetSubscription(ctx, munchkinID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Subscription{}, ports.ErrSubscriptionNotFound
		}
		return ports.Subscription{}, err
	}
	return mapSubscription(row), nil
}

func (s *subscriptionStore) StoredAPIKey(ctx context.Context, munchkinID string) (string, error) {
	sub, err := s.Get(ctx, munchkinID)
	if err != nil {
		return "", err
	}
	if !sub.HasAPIKey {
		return "", ports.ErrNoAPIKeySet
	}
	return sub.APIKey, nil
}

func (s *subscriptionStore) DebitIfAffordable(ctx context.Context, munchkinID string, credits int64) (int64, error) {
	if strings.TrimSpace(munchkinID) == "" {
		return 0, ports.ErrMissingAccountID
	}

	remaining, err := s.db.DebitQuota(ctx, munchkinID, credits)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// The conditional update did not apply; distinguish an unknown account
	// from an unaffordable batch.
	if _, getErr := s.db.GetSubscription(ctx, munchkinID); getErr != nil {
		if errors.Is(getErr, sql.ErrNoRows) {
			return 0, ports.ErrSubscriptionNotFound
		}
		return 0, getErr
	}
	return 0, ports.ErrInsufficientQuota
}

func (s *subscriptionStore) Create(ctx context.Context, munchkinID, apiKey string, quota int64) (ports.Subscription, error) {
	if strings.TrimSpace(munchkinID) == "" {
		return ports.Subscription{}, ports.ErrMissingAccountID
	}

	if err := s.db.InsertSubscription(ctx, munchkinID, apiKey, quota); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ports.Subscription{}, ports.ErrSubscriptionExists
		}
		return ports.Subscription{}, err
	}
	return ports.Subscription{
		MunchkinID: munchkinID,
		APIKey:     apiKey,
		HasAPIKey:  apiKey != "",
		Quota:      quota,
	}, nil
}

func (s *subscriptionStore) AddCredits(ctx context.Context, munchkinID string, credits int64) (int64, error) {
	if strings.TrimSpace(munchkinID) == "" {
		return 0, ports.ErrMissingAccountID
	}

	balance, err := s.db.AddQuota(ctx, munchkinID, credits)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ports.ErrSubscriptionNotFound
		}
		return 0, err
	}
	return balance, nil
}

func mapSubscription(row db.SubscriptionRow) ports.Subscription {
	return ports.Subscription{
		MunchkinID: row.MunchkinID,
		APIKey:     row.APIKey.String,
		HasAPIKey:  row.APIKey.Valid && row.APIKey.String != "",
		Quota:      row.Quota,
	}
}

var _ ports.SubscriptionStore = (*subscriptionStore)(nil)
