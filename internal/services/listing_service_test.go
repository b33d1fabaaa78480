package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tradepost/internal/events"
	"tradepost/internal/models"
	"tradepost/internal/repositories"
)

type stubEnricher struct {
	result models.Enrichment
	err    error
	calls  int
}

func (s *stubEnricher) Enrich(ctx context.Context, title, description string) (models.Enrichment, error) {
	s.calls++
	return s.result, s.err
}

type failingSaveListingRepo struct {
	*repositories.MemoryListingRepository
	saveErr error
}

func (r *failingSaveListingRepo) Save(ctx context.Context, l models.Listing) (models.Listing, error) {
	if r.saveErr != nil {
		return models.Listing{}, r.saveErr
	}
	return r.MemoryListingRepository.Save(ctx, l)
}

func validInput() models.CreateListingInput {
	return models.CreateListingInput{
		UserID:      "seller-1",
		Title:       "Switch OLED",
		Description: "lightly used, comes with dock and two controllers",
		Price:       2200,
		TradeType:   models.TradeTypeSell,
		Keywords:    []string{"nintendo", "console"},
	}
}

func newTestListingService(balance int) (*ListingService, *LedgerService, *repositories.MemoryListingRepository, *stubEnricher, *[]recordedEvent) {
	ledger := newTestLedger()
	if balance > 0 {
		ledger.Credit(context.Background(), "seller-1", balance, "seed", "")
	}
	repo := repositories.NewMemoryListingRepository()
	enricher := &stubEnricher{}
	bus, recorded := newRecordingBus()
	svc := &ListingService{ListingRepo: repo, Points: ledger, AI: enricher, Events: bus}
	return svc, ledger, repo, enricher, recorded
}

func TestPublishHappyPath(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, enricher, recorded := newTestListingService(25)

	before := time.Now()
	listing, err := svc.Publish(ctx, validInput())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	balance, _ := ledger.Balance(ctx, "seller-1")
	if balance != 15 {
		t.Fatalf("expected publish to cost exactly 10 points, balance %d", balance)
	}
	if listing.RemainingViews != 10 || listing.ViewLimit != 10 {
		t.Fatalf("expected views 10/10, got %d/%d", listing.RemainingViews, listing.ViewLimit)
	}
	if listing.Status != models.ListingStatusActive {
		t.Fatalf("expected active status, got %s", listing.Status)
	}
	if listing.TotalDeals != 0 {
		t.Fatalf("fresh listing must have no deals")
	}
	lifetime := listing.ExpiresAt.Sub(before)
	if lifetime < 71*time.Hour || lifetime > 73*time.Hour {
		t.Fatalf("expected ~72h lifetime, got %v", lifetime)
	}
	if enricher.calls != 0 {
		t.Fatalf("enricher must not be called without ai_assist")
	}
	if len(*recorded) != 1 || (*recorded)[0].name != events.ListingPublished {
		t.Fatalf("expected one listing.published event, got %+v", *recorded)
	}
}

func TestPublishValidation(t *testing.T) {
	svc, _, _, _, _ := newTestListingService(100)
	ctx := context.Background()

	cases := []struct {
		field  string
		mutate func(*models.CreateListingInput)
	}{
		{"title", func(in *models.CreateListingInput) { in.Title = "short" }},
		{"title", func(in *models.CreateListingInput) { in.Title = string(make([]byte, 61)) }},
		// 出租号 is 9 bytes but only 3 characters, still too short.
		{"title", func(in *models.CreateListingInput) { in.Title = "出租号" }},
		{"description", func(in *models.CreateListingInput) { in.Description = "tiny" }},
		{"price", func(in *models.CreateListingInput) { in.Price = 0 }},
		{"price", func(in *models.CreateListingInput) { in.Price = -5 }},
		{"trade_type", func(in *models.CreateListingInput) { in.TradeType = "loan" }},
		{"keywords", func(in *models.CreateListingInput) {
			in.Keywords = []string{"a", "b", "c", "d", "e", "f"}
		}},
	}
	for _, tc := range cases {
		input := validInput()
		tc.mutate(&input)
		_, err := svc.Publish(ctx, input)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected validation error for %s, got %v", tc.field, err)
		}
		if validation.Field != tc.field {
			t.Fatalf("expected violated field %s, got %s", tc.field, validation.Field)
		}
	}
}

func TestPublishCountsCharactersNotBytes(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestListingService(100)

	// 25 characters of Chinese text is 75 bytes; both fields are well
	// within their character bounds.
	input := validInput()
	input.Title = strings.Repeat("出", 25)
	input.Description = strings.Repeat("租", 20)

	if _, err := svc.Publish(ctx, input); err != nil {
		t.Fatalf("expected multi-byte title to pass validation, got %v", err)
	}
}

func TestPublishInsufficientBalanceCreatesNothing(t *testing.T) {
	ctx := context.Background()
	svc, _, repo, _, _ := newTestListingService(9)

	_, err := svc.Publish(ctx, validInput())
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	active, _ := repo.ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("failed publish must not create a listing")
	}
}

func TestPublishWithEnrichment(t *testing.T) {
	ctx := context.Background()
	svc, _, _, enricher, _ := newTestListingService(25)
	enricher.result = models.Enrichment{Keywords: []string{"console", "oled", "handheld"}, Summary: "portable console in great shape"}

	input := validInput()
	input.AIAssist = true
	listing, err := svc.Publish(ctx, input)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if enricher.calls != 1 {
		t.Fatalf("expected one enrichment call, got %d", enricher.calls)
	}
	want := []string{"nintendo", "console", "oled", "handheld"}
	if len(listing.Keywords) != len(want) {
		t.Fatalf("expected merged deduplicated keywords %v, got %v", want, listing.Keywords)
	}
	for i, k := range want {
		if listing.Keywords[i] != k {
			t.Fatalf("expected keyword %q at %d, got %q", k, i, listing.Keywords[i])
		}
	}
	if listing.AISummary != "portable console in great shape" {
		t.Fatalf("expected summary from enrichment, got %q", listing.AISummary)
	}
}

func TestPublishEnrichmentFailureDegrades(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, enricher, _ := newTestListingService(25)
	enricher.err = errors.New("gateway down")

	input := validInput()
	input.AIAssist = true
	listing, err := svc.Publish(ctx, input)
	if err != nil {
		t.Fatalf("enrichment failure must not fail publish: %v", err)
	}
	if len(listing.Keywords) != 2 || listing.AISummary != "" {
		t.Fatalf("expected user keywords only, got %v / %q", listing.Keywords, listing.AISummary)
	}
	balance, _ := ledger.Balance(ctx, "seller-1")
	if balance != 15 {
		t.Fatalf("publish fee still applies, balance %d", balance)
	}
}

func TestPublishStoreFailureRefunds(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()
	ledger.Credit(ctx, "seller-1", 25, "seed", "")
	repo := &failingSaveListingRepo{
		MemoryListingRepository: repositories.NewMemoryListingRepository(),
		saveErr:                 errors.New("store down"),
	}
	svc := &ListingService{ListingRepo: repo, Points: ledger}

	_, err := svc.Publish(ctx, validInput())
	if err == nil {
		t.Fatalf("expected store error to surface")
	}
	balance, _ := ledger.Balance(ctx, "seller-1")
	if balance != 25 {
		t.Fatalf("expected publish fee refunded after failed save, balance %d", balance)
	}
	history, _ := ledger.History(ctx, "seller-1")
	if history[0].ChangeType != models.ChangeTypeBonus {
		t.Fatalf("expected refund recorded as bonus, got %s", history[0].ChangeType)
	}
}

func TestRepublishResetsListing(t *testing.T) {
	ctx := context.Background()
	svc, ledger, repo, _, _ := newTestListingService(40)

	listing, err := svc.Publish(ctx, validInput())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// run it down to expired with no views left
	worn := listing
	worn.Status = models.ListingStatusExpired
	worn.RemainingViews = 0
	worn.ExpiresAt = time.Now().Add(-time.Hour)
	if _, err := repo.Save(ctx, worn); err != nil {
		t.Fatalf("Save: %v", err)
	}

	renewed, err := svc.Republish(ctx, listing.ID, "seller-1")
	if err != nil {
		t.Fatalf("Republish: %v", err)
	}
	if renewed.Status != models.ListingStatusActive {
		t.Fatalf("expected active after republish, got %s", renewed.Status)
	}
	if renewed.RemainingViews != 10 || renewed.ViewLimit != 10 {
		t.Fatalf("expected views reset to 10/10, got %d/%d", renewed.RemainingViews, renewed.ViewLimit)
	}
	if !renewed.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected fresh expiry")
	}
	balance, _ := ledger.Balance(ctx, "seller-1")
	if balance != 20 {
		t.Fatalf("expected two publish fees charged, balance %d", balance)
	}
}

func TestRepublishOwnershipAndExistence(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestListingService(40)

	listing, _ := svc.Publish(ctx, validInput())

	if _, err := svc.Republish(ctx, "missing", "seller-1"); !errors.Is(err, models.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if _, err := svc.Republish(ctx, listing.ID, "intruder"); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestExpireOverdueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, repo, _, _ := newTestListingService(40)

	fresh, _ := svc.Publish(ctx, validInput())

	stale := fresh
	stale.ID = "stale-listing"
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	if _, err := repo.Save(ctx, stale); err != nil {
		t.Fatalf("Save: %v", err)
	}
	drained := fresh
	drained.ID = "drained-listing"
	drained.RemainingViews = 0
	if _, err := repo.Save(ctx, drained); err != nil {
		t.Fatalf("Save: %v", err)
	}

	now := time.Now()
	expired, err := svc.ExpireOverdue(ctx, now)
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expected 2 listings expired, got %d", expired)
	}

	again, err := svc.ExpireOverdue(ctx, now)
	if err != nil {
		t.Fatalf("ExpireOverdue second run: %v", err)
	}
	if again != 0 {
		t.Fatalf("second sweep with same now must expire nothing, got %d", again)
	}

	kept, _ := repo.FindByID(ctx, fresh.ID)
	if kept.Status != models.ListingStatusActive {
		t.Fatalf("fresh listing must stay active")
	}
}
