package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// runRepairSweep periodically resets players left sold without a team,
// e.g. after a team was deleted mid-auction. The sweep is idempotent,
// so overlapping with an operator-triggered repair is harmless.
func runRepairSweep(ctx context.Context, services *Services, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			auctions, err := services.Auctions.ListUpcoming(ctx)
			if err != nil {
				log.Error().Err(err).Msg("repair sweep: failed to list auctions")
				continue
			}
			for _, a := range auctions {
				repaired, err := services.Engine.RepairOrphanedSold(ctx, a.ID)
				if err != nil {
					log.Error().Err(err).Str("auction_id", a.ID.String()).Msg("repair sweep failed")
					continue
				}
				if repaired > 0 {
					log.Warn().
						Int("repaired", repaired).
						Str("auction_id", a.ID.String()).
						Msg("repair sweep reset players sold without a team")
				}
			}
		}
	}
}
