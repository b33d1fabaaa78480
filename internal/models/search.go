package models

type SearchQuery struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
	UserID  string `json:"user_id,omitempty"`
}

type SearchResult struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Price          float64 `json:"price"`
	TotalDeals     int     `json:"total_deals"`
	RemainingViews int     `json:"remaining_views"`
	Score          float64 `json:"score"`
}

type SuggestionResult struct {
	Suggestions []string `json:"suggestions"`
}
