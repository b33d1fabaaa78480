package services

import (
	"context"

	"tradepost/internal/models"
)

// LedgerRepository is the durable append-only points log. AddTransaction
// must serialize the balance check-and-apply per user and fail with
// models.ErrInsufficientBalance before persisting anything that would drive
// a balance negative.
type LedgerRepository interface {
	AddTransaction(ctx context.Context, entry models.PointTransaction) (models.PointTransaction, error)
	GetBalance(ctx context.Context, userID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]models.PointTransaction, error)
}

type LedgerService struct {
	LedgerRepo LedgerRepository
}

// Deduct records a transaction of -amount against the user's balance.
func (s *LedgerService) Deduct(ctx context.Context, userID string, amount int, changeType, description, referenceID string) error {
	if amount <= 0 {
		return models.NewValidationError("amount", "must be positive")
	}
	_, err := s.LedgerRepo.AddTransaction(ctx, models.PointTransaction{
		UserID:      userID,
		Amount:      -amount,
		ChangeType:  changeType,
		Description: description,
		ReferenceID: referenceID,
	})
	return err
}

// Credit records a top-up of +amount. Unknown users are created with the
// credited amount as their first balance.
func (s *LedgerService) Credit(ctx context.Context, userID string, amount int, description, referenceID string) error {
	if amount <= 0 {
		return models.NewValidationError("amount", "must be positive")
	}
	_, err := s.LedgerRepo.AddTransaction(ctx, models.PointTransaction{
		UserID:      userID,
		Amount:      amount,
		ChangeType:  models.ChangeTypeRecharge,
		Description: description,
		ReferenceID: referenceID,
	})
	return err
}

// Refund compensates a charge whose follow-up write failed. It is a bonus
// credit linked to the original reference.
func (s *LedgerService) Refund(ctx context.Context, userID string, amount int, description, referenceID string) error {
	if amount <= 0 {
		return models.NewValidationError("amount", "must be positive")
	}
	_, err := s.LedgerRepo.AddTransaction(ctx, models.PointTransaction{
		UserID:      userID,
		Amount:      amount,
		ChangeType:  models.ChangeTypeBonus,
		Description: description,
		ReferenceID: referenceID,
	})
	return err
}

// Balance returns the user's current balance, zero for unknown users.
func (s *LedgerService) Balance(ctx context.Context, userID string) (int, error) {
	return s.LedgerRepo.GetBalance(ctx, userID)
}

// History returns the user's transactions, newest first.
func (s *LedgerService) History(ctx context.Context, userID string) ([]models.PointTransaction, error) {
	return s.LedgerRepo.ListByUser(ctx, userID)
}
