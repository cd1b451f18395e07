package main

import (
	"context"
	"time"
)

const expireSweepInterval = 5 * time.Minute

// expireRequestsLoop periodically flips overdue open requests to expired.
// Reads also run a lazy check, the sweep just bounds how long a stale row
// can sit unread.
func (app *application) expireRequestsLoop() {
	ticker := time.NewTicker(expireSweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := app.requestService.ExpireOverdue(ctx, time.Now())
		cancel()
		if err != nil {
			app.errorLog.Printf("expire sweep failed: %v", err)
			continue
		}
		if n > 0 {
			app.infoLog.Printf("expire sweep: %d requests expired", n)
		}
	}
}
