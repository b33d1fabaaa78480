package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"tradepost/internal/models"
)

var defaultSuggestions = []string{"iPhone", "MacBook", "Switch", "GPU", "租号"}

type SearchHistoryRepository interface {
	Record(ctx context.Context, userID, keyword string) error
	History(ctx context.Context, userID string) ([]string, error)
	Clear(ctx context.Context, userID string) error
}

// SearchService scores the active listing set against a keyword with a
// naive linear scan. Fine at this scale; no index involved.
type SearchService struct {
	ListingRepo ListingRepository
	HistoryRepo SearchHistoryRepository
}

// Search ranks active listings for the query and, when a user id is
// present, records the raw trimmed keyword in that user's history.
func (s *SearchService) Search(ctx context.Context, query models.SearchQuery) ([]models.SearchResult, error) {
	listings, err := s.ListingRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := scoreListings(query.Keyword, listings, time.Now())

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(results) > limit {
		results = results[:limit]
	}

	if keyword := strings.TrimSpace(query.Keyword); keyword != "" && query.UserID != "" {
		if err := s.HistoryRepo.Record(ctx, query.UserID, keyword); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// scoreListings applies the relevance formula: title match 1.0, description
// match 0.5, keyword match 0.7, then 0.3 per confirmed deal, linear recency
// decay over the 72h lifetime and the remaining-views ratio as boosts. A
// listing whose text does not match the keyword at all scores zero and is
// dropped; ties break on listing id so ranking is deterministic.
func scoreListings(keyword string, listings []models.Listing, now time.Time) []models.SearchResult {
	normalized := strings.ToLower(strings.TrimSpace(keyword))

	results := make([]models.SearchResult, 0, len(listings))
	for _, l := range listings {
		score := 0.0
		if strings.Contains(strings.ToLower(l.Title), normalized) {
			score += 1.0
		}
		if strings.Contains(strings.ToLower(l.Description), normalized) {
			score += 0.5
		}
		for _, k := range l.Keywords {
			if strings.Contains(strings.ToLower(k), normalized) {
				score += 0.7
				break
			}
		}
		if score > 0 {
			score += 0.3 * float64(l.TotalDeals)

			age := now.Sub(l.CreatedAt)
			if recency := 1 - age.Hours()/72; recency > 0 {
				score += recency
			}
			if l.ViewLimit > 0 {
				score += float64(l.RemainingViews) / float64(l.ViewLimit)
			}
		}

		if score > 0 {
			results = append(results, models.SearchResult{
				ID:             l.ID,
				Title:          l.Title,
				Price:          l.Price,
				TotalDeals:     l.TotalDeals,
				RemainingViews: l.RemainingViews,
				Score:          score,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// Suggestions unions the static candidate set with the user's own history,
// case-insensitively prefix-matched and capped at 10.
func (s *SearchService) Suggestions(ctx context.Context, prefix, userID string) (models.SuggestionResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(prefix))

	var history []string
	if userID != "" {
		var err error
		history, err = s.HistoryRepo.History(ctx, userID)
		if err != nil {
			return models.SuggestionResult{}, err
		}
	}

	seen := make(map[string]bool)
	suggestions := make([]string, 0, 10)
	for _, candidate := range append(append([]string(nil), defaultSuggestions...), history...) {
		if !strings.HasPrefix(strings.ToLower(candidate), normalized) {
			continue
		}
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		suggestions = append(suggestions, candidate)
		if len(suggestions) == 10 {
			break
		}
	}
	return models.SuggestionResult{Suggestions: suggestions}, nil
}

func (s *SearchService) History(ctx context.Context, userID string) ([]string, error) {
	return s.HistoryRepo.History(ctx, userID)
}

func (s *SearchService) ClearHistory(ctx context.Context, userID string) error {
	return s.HistoryRepo.Clear(ctx, userID)
}
