package posts

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically flips the expired flag on posts past their
// expiration. The feed is correct without it; the sweep keeps the stored
// flag close to reality for audit queries and owner dashboards.
type Sweeper struct {
	service  *Service
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
}

// NewSweeper creates a sweeper over the given lifecycle service.
func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		service:  service,
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
	}
}

// Start begins the periodic sweep
func (s *Sweeper) Start() {
	log.Println("🧹 Starting expired-post sweeper")
	go s.run()
}

// Stop stops the sweeper
func (s *Sweeper) Stop() {
	log.Println("🧹 Stopping expired-post sweeper")
	s.cancel()
}

func (s *Sweeper) run() {
	// Run immediately on startup
	if _, err := s.service.SweepExpired(s.ctx); err != nil {
		log.Printf("❌ Expired-post sweep failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.service.SweepExpired(s.ctx); err != nil {
				log.Printf("❌ Expired-post sweep failed: %v", err)
			}
		case <-s.ctx.Done():
			return
		}
	}
}
