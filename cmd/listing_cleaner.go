package main

import (
	"context"
	"log"
	"time"

	"tradepost/internal/services"
)

const (
	listingCleanerInterval = 5 * time.Minute
	listingCleanerTimeout  = 30 * time.Second
)

func startListingCleaner(ctx context.Context, svc *services.ListingService, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(listingCleanerInterval)
		defer ticker.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, listingCleanerTimeout)
			defer cancel()

			expired, err := svc.ExpireOverdue(runCtx, time.Now())
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("listing cleaner: failed to expire overdue listings: %v", err)
				}
				return
			}
			if expired > 0 && infoLog != nil {
				infoLog.Printf("listing cleaner: expired %d listings", expired)
			}
		}

		run()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
