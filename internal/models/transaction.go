package models

import "time"

// Point transaction change types. The value is what lands in the
// point_transactions.change_type column.
const (
	ChangeTypePublish   = "publish"
	ChangeTypeView      = "view"
	ChangeTypeRepublish = "republish"
	ChangeTypeRecharge  = "recharge"
	ChangeTypeBonus     = "bonus"
	ChangeTypeContact   = "listing.contact"
)

// PointTransaction is one immutable entry of the append-only points log.
// Amount is signed; BalanceAfter is the user's balance once it applied.
type PointTransaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Amount       int       `json:"amount"`
	ChangeType   string    `json:"change_type"`
	BalanceAfter int       `json:"balance_after"`
	Description  string    `json:"description"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
