package jobs

import (
	"context"
	"log"
	"time"

	"pay-chain.backend/internal/usecases"
)

// QuoteExpiryJob periodically sweeps Quotes past their expires_at that are
// still Pending and transitions them to Expired, so a client who never
// commits in time doesn't leave a quote open indefinitely.
type QuoteExpiryJob struct {
	quoteEngine *usecases.QuoteEngine
	interval    time.Duration
	stop        chan struct{}
}

// NewQuoteExpiryJob creates a QuoteExpiryJob sweeping at interval.
func NewQuoteExpiryJob(quoteEngine *usecases.QuoteEngine, interval time.Duration) *QuoteExpiryJob {
	return &QuoteExpiryJob{
		quoteEngine: quoteEngine,
		interval:    interval,
		stop:        make(chan struct{}),
	}
}

func (j *QuoteExpiryJob) Start(ctx context.Context) {
	log.Println("🕐 Starting quote expiry job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Quote expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Quote expiry job stopped")
			return
		case <-ticker.C:
			j.expireDue(ctx)
		}
	}
}

func (j *QuoteExpiryJob) Stop() {
	close(j.stop)
}

func (j *QuoteExpiryJob) expireDue(ctx context.Context) {
	expired, err := j.quoteEngine.ExpireDue(ctx)
	if err != nil {
		log.Printf("❌ Error expiring quotes: %v", err)
		return
	}
	if len(expired) > 0 {
		log.Printf("✅ Expired %d quotes", len(expired))
	}
}
