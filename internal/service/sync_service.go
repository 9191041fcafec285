package service

import (
	"sort"
	"sync"

	"salon-sync-server/internal/domain"
	"salon-sync-server/internal/repository"
)

// SyncService owns the set of active schedule watches, keyed by a
// caller-chosen subscription id. It is a plain value with its own lock, owned
// by whoever constructs it; tests build isolated instances.
//
// Callback contract: on every store change touching the watched window the
// callback receives the full current result set, never a diff. Within one id
// deliveries arrive in store order; across ids there is no ordering. A
// callback must not stop or restart its own subscription from inside the
// callback.
type SyncService struct {
	repo repository.ReservationRepository

	mu      sync.Mutex
	watches map[string]repository.CancelFunc
}

func NewSyncService(repo repository.ReservationRepository) *SyncService {
	return &SyncService{
		repo:    repo,
		watches: make(map[string]repository.CancelFunc),
	}
}

// StartDateRangeSync registers a watch under id, tearing down any previous
// subscription held by that id first. Last start wins; ids never stack.
func (s *SyncService) StartDateRangeSync(id, start, end string, onChange func([]*domain.Reservation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.watches[id]; ok {
		delete(s.watches, id)
		prev()
	}

	cancel, err := s.repo.WatchByDateRange(start, end, onChange)
	if err != nil {
		return err
	}

	s.watches[id] = cancel
	return nil
}

func (s *SyncService) StartDateSync(id, date string, onChange func([]*domain.Reservation)) error {
	return s.StartDateRangeSync(id, date, date, onChange)
}

// StopSync cancels the subscription under id. Unknown ids are a no-op; once
// StopSync returns, the id's callback will not fire again.
func (s *SyncService) StopSync(id string) {
	s.mu.Lock()
	cancel, ok := s.watches[id]
	if ok {
		delete(s.watches, id)
	}
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// StopAllSync cancels every active subscription and clears the registry.
func (s *SyncService) StopAllSync() {
	s.mu.Lock()
	cancels := make([]repository.CancelFunc, 0, len(s.watches))
	for id, cancel := range s.watches {
		cancels = append(cancels, cancel)
		delete(s.watches, id)
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *SyncService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

func (s *SyncService) ActiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.watches))
	for id := range s.watches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
