package domain

import "time"

// TransactionKind - category of a wallet transaction. Earned, reward and
// purchase amounts are stored positive; spent amounts are stored negative,
// so the balance is always the plain sum of amounts.
type TransactionKind string

const (
	TransactionEarned   TransactionKind = "earned"
	TransactionSpent    TransactionKind = "spent"
	TransactionReward   TransactionKind = "reward"
	TransactionPurchase TransactionKind = "purchase"
)

// Transaction is one entry in an account's append-only wallet log
type Transaction struct {
	ID          int64                  `db:"id" json:"id"`
	UserID      int64                  `db:"user_id" json:"user_id"`
	Kind        TransactionKind        `db:"kind" json:"kind"`
	Amount      int64                  `db:"amount" json:"amount"`
	Description string                 `db:"description" json:"description"`
	Meta        map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
}
