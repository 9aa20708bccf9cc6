package registration

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically purges expired pending registrations. DynamoDB TTL
// removes them eventually too, but with no timing guarantee.
type Sweeper struct {
	svc      Service
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(svc Service, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, now: time.Now}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.PurgeExpired(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("pending sweep failed", "err", err, "purged", n)
		}
		return
	}
	if n > 0 {
		slog.Info("pending sweep", "purged", n)
	}
}
