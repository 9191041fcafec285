package repository

import (
	"context"
	"log"
	"strings"
	"sync"

	"salon-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// watchGate serializes callback delivery against cancellation. Once stop
// returns, deliver never runs its function again, even for a notification
// already in flight.
type watchGate struct {
	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

func (g *watchGate) deliver(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	fn()
}

func (g *watchGate) stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
	g.cancel()
}

func (r *reservationRepository) WatchByDateRange(start, end string, onChange func([]*domain.Reservation)) (CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())
	gate := &watchGate{cancel: cancel}

	db := r.client.DB(r.dbName)
	changes := db.Changes(ctx, kivik.Params(map[string]interface{}{
		"feed":         "continuous",
		"since":        "now",
		"include_docs": true,
		"heartbeat":    30000,
	}))

	go func() {
		defer changes.Close()
		for changes.Next() {
			if !r.changeInRange(changes, start, end) {
				continue
			}

			set, err := r.FindByDateRange(start, end)
			if err != nil {
				log.Printf("watch [%s..%s]: failed to refresh range: %v", start, end, err)
				continue
			}

			gate.deliver(func() { onChange(set) })
		}
		if err := changes.Err(); err != nil && ctx.Err() == nil {
			log.Printf("watch [%s..%s]: changes feed ended: %v", start, end, err)
		}
	}()

	return gate.stop, nil
}

func (r *reservationRepository) WatchByDate(date string, onChange func([]*domain.Reservation)) (CancelFunc, error) {
	return r.WatchByDateRange(date, date, onChange)
}

// changeInRange filters feed entries down to reservation documents that can
// affect the watched window. Deletions arrive without a date, so they always
// trigger a refresh.
func (r *reservationRepository) changeInRange(changes *kivik.Changes, start, end string) bool {
	var doc struct {
		DocID string `json:"_id"`
		Date  string `json:"date"`
	}
	if err := changes.ScanDoc(&doc); err != nil {
		return false
	}

	if !strings.HasPrefix(doc.DocID, "reservation:") {
		return false
	}
	if doc.Date == "" {
		return true
	}
	return doc.Date >= start && doc.Date <= end
}
