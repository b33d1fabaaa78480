package main

import (
	"context"
	"log"
	"time"

	"tradepost/internal/services"
)

const (
	dealReminderInterval = 10 * time.Minute
	dealReminderTimeout  = 30 * time.Second
)

func startDealReminder(ctx context.Context, svc *services.DealService, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(dealReminderInterval)
		defer ticker.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, dealReminderTimeout)
			defer cancel()

			reminded, err := svc.RemindPending(runCtx, time.Now())
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("deal reminder: failed to process pending confirmations: %v", err)
				}
				return
			}
			if reminded > 0 && infoLog != nil {
				infoLog.Printf("deal reminder: nudged %d pending confirmations", reminded)
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
