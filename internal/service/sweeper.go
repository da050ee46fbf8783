package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/rail-ticket-reservation/internal/queue"
)

// StaleOrderStore cancels expired BOOKED orders under row locks and
// returns the affected ids.
type StaleOrderStore interface {
	CancelStale(ctx context.Context, cutoff time.Time) ([]uint64, error)
}

// Sweeper cancels unpaid orders left in BOOKED state longer than the
// configured residence time.  It races IssueTicket on individual rows;
// whichever acquires the row lock first wins, and the loser detects the
// stale state instead of double-transitioning.
type Sweeper struct {
	orders    StaleOrderStore
	residence time.Duration // max age of an unpaid order, default 1800s
	interval  time.Duration // sweep period
	events    EventSink     // optional
	now       func() time.Time
}

func NewSweeper(orders StaleOrderStore, residence, interval time.Duration, events EventSink) *Sweeper {
	if residence <= 0 {
		residence = 30 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		orders:    orders,
		residence: residence,
		interval:  interval,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.  Intended to be
// started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("sweeper: running every %s, residence time %s", s.interval, s.residence)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: canceled %d stale orders", n)
			}
		}
	}
}

// SweepOnce cancels every BOOKED order strictly older than the residence
// time and publishes a cancellation event per order.  Returns the number
// of orders canceled.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.residence)
	ids, err := s.orders.CancelStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if s.events == nil {
			continue
		}
		ev := queue.OrderEvent{
			Type:       queue.EventOrderCanceled,
			OrderID:    id,
			OccurredAt: s.now().Format(time.RFC3339),
		}
		if err := s.events(ctx, ev); err != nil {
			log.Printf("sweeper: publish cancel for order %d failed: %v", id, err)
		}
	}
	return len(ids), nil
}
