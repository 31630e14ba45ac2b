package ai

import (
	"context"
	"database/sql"
	"errors"
)

// ErrInsufficientCredits is returned when a user cannot afford a generation.
var ErrInsufficientCredits = errors.New("ai: insufficient credits")

// Ledger debits and credits per-user AI generation credits. Debit happens
// before the model call, mirroring the billing policy of the product.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger { return &Ledger{db: db} }

// Debit atomically deducts cost from the user's balance. The guarded UPDATE
// keeps concurrent generations from overdrawing the account.
func (l *Ledger) Debit(ctx context.Context, userID string, cost int64) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE users SET credits = credits - $1 WHERE id = $2 AND credits >= $1`, cost, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// Refund returns cost to the user, used when the model call fails after the
// up-front debit.
func (l *Ledger) Refund(ctx context.Context, userID string, cost int64) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE users SET credits = credits + $1 WHERE id = $2`, cost, userID)
	return err
}

// Balance reads the user's current credit balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := l.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&credits)
	if err != nil {
		return 0, err
	}
	return credits, nil
}
