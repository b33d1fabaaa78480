package models

import "time"

const (
	ConfirmStatusPending   = "pending"
	ConfirmStatusConfirmed = "confirmed"
	ConfirmStatusSkipped   = "skipped"
)

// ContactView records one paid unlock of a seller's contact details.
// Exactly one points charge is taken when the record is created.
type ContactView struct {
	ID              string     `json:"id"`
	PostID          string     `json:"post_id"`
	BuyerID         string     `json:"buyer_id"`
	SellerID        string     `json:"seller_id"`
	DeductedPoints  int        `json:"deducted_points"`
	Copied          bool       `json:"copied"`
	CopiedAt        *time.Time `json:"copied_at,omitempty"`
	ConfirmStatus   string     `json:"confirm_status"`
	ConfirmPayload  string     `json:"confirm_payload,omitempty"`
	ConfirmDeadline time.Time  `json:"confirm_deadline"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DealStat is the per-listing aggregate of confirmed deals.
type DealStat struct {
	PostID     string    `json:"post_id"`
	SellerID   string    `json:"seller_id"`
	TotalDeals int       `json:"total_deals"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PurchaseContactResult is returned to the buyer after a successful unlock.
// ContactToken is a display-only receipt, not a verified credential.
type PurchaseContactResult struct {
	ContactViewID   string    `json:"contact_view_id"`
	ContactToken    string    `json:"contact_token"`
	ConfirmDeadline time.Time `json:"confirm_deadline"`
	Contact         string    `json:"contact"`
}
