package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"tradepost/internal/events"
	"tradepost/internal/models"
)

const (
	contactCost          = 1
	confirmDeadlineHours = 24
)

type ContactViewRepository interface {
	Create(ctx context.Context, cv models.ContactView) (models.ContactView, error)
	FindByID(ctx context.Context, id string) (models.ContactView, error)
	Update(ctx context.Context, cv models.ContactView) error
	ListPendingConfirmations(ctx context.Context, now time.Time) ([]models.ContactView, error)
	ListByPost(ctx context.Context, postID string) ([]models.ContactView, error)
}

type DealStatRepository interface {
	Increment(ctx context.Context, postID, sellerID string) (models.DealStat, error)
	Get(ctx context.Context, postID string) (models.DealStat, error)
}

// UserLookup resolves the seller whose contact string is revealed on
// purchase.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// DealService orchestrates the contact-unlock workflow: charge the buyer,
// hand over the seller's contact, then track the deal to confirmation.
type DealService struct {
	ContactRepo ContactViewRepository
	StatRepo    DealStatRepository
	ListingRepo ListingRepository
	Users       UserLookup
	Points      PointsSource
	Events      *events.Bus
	ErrorLog    *log.Logger
}

// PurchaseContact charges the buyer one point and creates a pending contact
// view due for confirmation in 24 hours. The charge comes first; if the
// record write fails afterwards the point is refunded. The returned token is
// a display-only receipt.
func (s *DealService) PurchaseContact(ctx context.Context, postID, buyerID, sellerID string, price float64) (models.PurchaseContactResult, error) {
	if err := s.Points.Deduct(ctx, buyerID, contactCost, models.ChangeTypeContact, "contact unlock", postID); err != nil {
		return models.PurchaseContactResult{}, err
	}

	now := time.Now()
	deadline := now.Add(confirmDeadlineHours * time.Hour)
	cv, err := s.ContactRepo.Create(ctx, models.ContactView{
		PostID:          postID,
		BuyerID:         buyerID,
		SellerID:        sellerID,
		DeductedPoints:  contactCost,
		Copied:          true,
		CopiedAt:        &now,
		ConfirmStatus:   models.ConfirmStatusPending,
		ConfirmDeadline: deadline,
	})
	if err != nil {
		if refundErr := s.Points.Refund(ctx, buyerID, contactCost, "contact unlock refund", postID); refundErr != nil && s.ErrorLog != nil {
			s.ErrorLog.Printf("contact view for post %s: refund after failed create also failed: %v", postID, refundErr)
		}
		return models.PurchaseContactResult{}, err
	}

	var contact string
	if s.Users != nil {
		if seller, err := s.Users.FindByID(ctx, sellerID); err == nil {
			contact = seller.Contact()
		} else if s.ErrorLog != nil {
			s.ErrorLog.Printf("contact view %s: seller %s lookup failed: %v", cv.ID, sellerID, err)
		}
	}

	if s.Events != nil {
		s.Events.Emit(events.ContactPurchased, events.Payload{"post_id": postID, "buyer_id": buyerID})
	}
	return models.PurchaseContactResult{
		ContactViewID:   cv.ID,
		ContactToken:    newContactToken(),
		ConfirmDeadline: deadline,
		Contact:         contact,
	}, nil
}

// ConfirmDeal marks a pending contact view confirmed and bumps the deal
// counters. Only the original buyer may confirm; confirming a record that is
// no longer pending is a harmless no-op.
func (s *DealService) ConfirmDeal(ctx context.Context, contactViewID, buyerID, payload string) error {
	cv, err := s.ContactRepo.FindByID(ctx, contactViewID)
	if err != nil {
		return err
	}
	if cv.BuyerID != buyerID {
		return models.ErrPermissionDenied
	}
	if cv.ConfirmStatus != models.ConfirmStatusPending {
		return nil
	}

	cv.ConfirmStatus = models.ConfirmStatusConfirmed
	cv.ConfirmPayload = payload
	if err := s.ContactRepo.Update(ctx, cv); err != nil {
		return err
	}
	if _, err := s.StatRepo.Increment(ctx, cv.PostID, cv.SellerID); err != nil {
		return err
	}
	if err := s.ListingRepo.IncrementDeals(ctx, cv.PostID); err != nil {
		return err
	}

	if s.Events != nil {
		s.Events.Emit(events.DealConfirmed, events.Payload{"post_id": cv.PostID, "seller_id": cv.SellerID})
	}
	return nil
}

// PendingConfirmations lists pending contact views past their deadline.
func (s *DealService) PendingConfirmations(ctx context.Context, now time.Time) ([]models.ContactView, error) {
	return s.ContactRepo.ListPendingConfirmations(ctx, now)
}

// RemindPending emits one reminder per overdue pending record and extends
// its deadline by another 24 hours. A record that fails to update is logged
// and skipped.
func (s *DealService) RemindPending(ctx context.Context, now time.Time) (int, error) {
	due, err := s.ContactRepo.ListPendingConfirmations(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, cv := range due {
		if s.Events != nil {
			s.Events.Emit(events.ConfirmationPending, events.Payload{
				"post_id":         cv.PostID,
				"buyer_id":        cv.BuyerID,
				"contact_view_id": cv.ID,
			})
		}
		cv.ConfirmDeadline = cv.ConfirmDeadline.Add(confirmDeadlineHours * time.Hour)
		if err := s.ContactRepo.Update(ctx, cv); err != nil {
			if s.ErrorLog != nil {
				s.ErrorLog.Printf("contact view %s: deadline extension failed: %v", cv.ID, err)
			}
			continue
		}
		processed++
	}
	return processed, nil
}

func newContactToken() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
