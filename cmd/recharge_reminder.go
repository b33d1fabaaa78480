package main

import (
	"context"
	"log"
	"time"

	"tradepost/internal/services"
)

const (
	rechargeReminderInterval = 15 * time.Minute
	rechargeReminderTimeout  = 30 * time.Second
)

func startRechargeReminder(ctx context.Context, svc *services.RechargeService, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(rechargeReminderInterval)
		defer ticker.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, rechargeReminderTimeout)
			defer cancel()

			reminded, err := svc.RemindPending(runCtx, time.Now())
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("recharge reminder: failed to sweep pending tasks: %v", err)
				}
				return
			}
			if reminded > 0 && infoLog != nil {
				infoLog.Printf("recharge reminder: reminded %d pending top-ups", reminded)
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
