package main

import (
	"context"
	"time"

	"github.com/exceltravels/duty-track/internal/database"
	"github.com/exceltravels/duty-track/internal/observability"
)

// startOTPSweeper prunes expired OTP tickets in the background. Validation
// checks expiry inline regardless, the sweep only keeps the table small.
func (app *application) startOTPSweeper(interval time.Duration) {
	logger := app.logger.With("module", "otpSweeper")
	dao := database.NewOTPDAO(logger, app.db)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-app.done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				count, err := dao.DeleteExpired(ctx, time.Now())
				cancel()

				if err != nil {
					logger.Warn("sweep failed", "error", err)
					continue
				}

				if count > 0 {
					observability.OTPSweptTotal.Add(float64(count))
					logger.Debug("sweep finished", "removedTickets", count)
				}
			}
		}
	}()
}
