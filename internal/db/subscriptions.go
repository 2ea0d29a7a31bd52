package db

import (
	"context"
	"database/sql"
)

// SubscriptionRow mirrors one subscriptions table record.
type SubscriptionRow struct {
	MunchkinID string
	APIKey     sql.NullString
	Quota      int64
}

// GetSubscription fetches one record. sql.ErrNoRows passes through for the
// caller to map.
func (c *Database) GetSubscription(ctx context.Context, munchkinID string) (SubscriptionRow, error) {
	const query = `
	SELECT munchkin_id, api_key, quota
	FROM subscriptions
	WHERE munchkin_id = ?;`

	var row SubscriptionRow
	err := c.db.QueryRowContext(ctx, query, munchkinID).Scan(&row.MunchkinID, &row.APIKey, &row.Quota)
	if err != nil {
		return SubscriptionRow{}, err
	}
	return row, nil
}

// DebitQuota applies a conditional debit. The strict quota > credits guard
// lives in the UPDATE itself so concurrent debits against one account
// serialize inside the engine and can never jointly over-debit. The
// post-debit balance comes back through RETURNING, so it is exactly the
// value this debit produced. sql.ErrNoRows means the condition did not hold
// (unknown id or unaffordable).
func (c *Database) DebitQuota(ctx context.Context, munchkinID string, credits int64) (int64, error) {
	const query = `
	UPDATE subscriptions
	SET quota = quota - ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	WHERE munchkin_id = ? AND quota > ?
	RETURNING quota;`

	var remaining int64
	if err := c.db.QueryRowContext(ctx, query, credits, munchkinID, credits).Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// InsertSubscription creates one record. An empty apiKey is stored as NULL
// (no key configured yet).
func (c *Database) InsertSubscription(ctx context.Context, munchkinID, apiKey string, quota int64) error {
	const query = `
	INSERT INTO subscriptions (munchkin_id, api_key, quota)
	VALUES (?, ?, ?);`

	key := sql.NullString{}
	if apiKey != "" {
		key = sql.NullString{String: apiKey, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, query, munchkinID, key, quota)
	return err
}

// AddQuota credits an account and returns the new balance. sql.ErrNoRows
// means the record does not exist.
func (c *Database) AddQuota(ctx context.Context, munchkinID string, credits int64) (int64, error) {
	const query = `
	UPDATE subscriptions
	SET quota = quota + ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	WHERE munchkin_id = ?
	RETURNING quota;`

	var balance int64
	if err := c.db.QueryRowContext(ctx, query, credits, munchkinID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}
