package repository

import "time"

// Activity kinds.
const (
	KindTransfer = "transfer"
	KindVote     = "vote"
)

// Activity statuses.
const (
	StatusSubmitted = "submitted"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Activity is one transaction the dapp handed to the wallet.
type Activity struct {
	ID        string
	Kind      string
	Account   string
	Target    string
	Amount    *string
	Proposal  *int64
	TxHash    *string
	Status    string
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
