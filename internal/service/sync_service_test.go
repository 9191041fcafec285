package service

import (
	"errors"
	"reflect"
	"testing"

	"salon-sync-server/internal/domain"
)

func noopCallback([]*domain.Reservation) {}

func TestSyncService_StartAndStop(t *testing.T) {
	repo := newMockReservationRepo()
	svc := NewSyncService(repo)

	if err := svc.StartDateRangeSync("ui-1", "2024-12-26", "2024-12-31", noopCallback); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if svc.ActiveCount() != 1 {
		t.Errorf("expected 1 active subscription, got %d", svc.ActiveCount())
	}

	svc.StopSync("ui-1")
	if svc.ActiveCount() != 0 {
		t.Errorf("expected 0 active subscriptions, got %d", svc.ActiveCount())
	}
	if repo.watchCancelled != 1 {
		t.Errorf("expected the underlying watch to be cancelled, got %d", repo.watchCancelled)
	}
}

func TestSyncService_StopIsIdempotent(t *testing.T) {
	repo := newMockReservationRepo()
	svc := NewSyncService(repo)

	// Never-started ids are a no-op.
	svc.StopSync("ghost")
	if svc.ActiveCount() != 0 {
		t.Errorf("expected 0 active subscriptions, got %d", svc.ActiveCount())
	}

	if err := svc.StartDateSync("ui-1", "2024-12-26", noopCallback); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	svc.StopSync("ui-1")
	before := svc.ActiveCount()
	svc.StopSync("ui-1")
	if svc.ActiveCount() != before {
		t.Errorf("second stop changed the registry: %d -> %d", before, svc.ActiveCount())
	}
	if repo.watchCancelled != 1 {
		t.Errorf("expected a single cancellation, got %d", repo.watchCancelled)
	}
}

func TestSyncService_LastStartWins(t *testing.T) {
	repo := newMockReservationRepo()
	svc := NewSyncService(repo)

	if err := svc.StartDateSync("ui-1", "2024-12-26", noopCallback); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.StartDateRangeSync("ui-1", "2024-12-27", "2024-12-31", noopCallback); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if svc.ActiveCount() != 1 {
		t.Errorf("expected the second start to replace the first, got %d active", svc.ActiveCount())
	}
	if repo.watchStarted != 2 || repo.watchCancelled != 1 {
		t.Errorf("expected 2 starts and 1 cancellation, got %d/%d", repo.watchStarted, repo.watchCancelled)
	}
}

func TestSyncService_StopAll(t *testing.T) {
	repo := newMockReservationRepo()
	svc := NewSyncService(repo)

	for _, id := range []string{"front-desk", "calendar", "admin"} {
		if err := svc.StartDateSync(id, "2024-12-26", noopCallback); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	want := []string{"admin", "calendar", "front-desk"}
	if got := svc.ActiveIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected ids %v, got %v", want, got)
	}

	svc.StopAllSync()

	if svc.ActiveCount() != 0 {
		t.Errorf("expected an empty registry, got %d", svc.ActiveCount())
	}
	if repo.watchCancelled != 3 {
		t.Errorf("expected 3 cancellations, got %d", repo.watchCancelled)
	}
}

func TestSyncService_StartErrorLeavesRegistryClean(t *testing.T) {
	repo := newMockReservationRepo()
	repo.watchErr = errors.New("changes feed unavailable")
	svc := NewSyncService(repo)

	if err := svc.StartDateSync("ui-1", "2024-12-26", noopCallback); err == nil {
		t.Fatal("expected the watch error to surface")
	}
	if svc.ActiveCount() != 0 {
		t.Errorf("expected no registration after a failed start, got %d", svc.ActiveCount())
	}
}
