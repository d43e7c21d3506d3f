package broadcast

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Publisher pushes events to observers. Delivery is best effort: the
// allocation core publishes after its commit and never rolls back on a
// publish failure.
type Publisher interface {
	Publish(ctx context.Context, subject string, event Event) error
}

// LogPublisher writes events to the log instead of a broker. Used for
// development runs and tests.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, subject string, event Event) error {
	log.Info().
		Str("subject", subject).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("auction_id", event.AuctionID).
		Msg("publishing event")
	return nil
}
