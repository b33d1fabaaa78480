package models

import "time"

const (
	ListingStatusActive  = "active"
	ListingStatusExpired = "expired"
)

const (
	TradeTypeBuy   = "buy"
	TradeTypeSell  = "sell"
	TradeTypeTrade = "trade"
	TradeTypeOther = "other"
)

type Listing struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	TradeType      string    `json:"trade_type"`
	Keywords       []string  `json:"keywords"`
	AISummary      string    `json:"ai_summary,omitempty"`
	RemainingViews int       `json:"remaining_views"`
	ViewLimit      int       `json:"view_limit"`
	TotalDeals     int       `json:"total_deals"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Enrichment is what the AI gateway derives from a listing's text.
type Enrichment struct {
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

type CreateListingInput struct {
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	TradeType   string   `json:"trade_type"`
	Keywords    []string `json:"keywords"`
	AIAssist    bool     `json:"ai_assist"`
}
