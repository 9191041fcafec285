package service

import (
	"errors"
	"time"

	"salon-sync-server/internal/domain"
	"salon-sync-server/internal/repository"

	"github.com/google/uuid"
)

// ReservationService is the write façade over the reservation store. All
// mutations after creation go through the optimistic-locked path; the service
// never retries a conflict on its own.
type ReservationService struct {
	repo repository.ReservationRepository
}

func NewReservationService(repo repository.ReservationRepository) *ReservationService {
	return &ReservationService{repo: repo}
}

func (s *ReservationService) Create(req *domain.CreateReservationRequest) (*domain.Reservation, error) {
	if !domain.IsValidTimeSlot(req.TimeSlot) {
		return nil, ErrInvalidTimeSlot
	}

	now := time.Now().UTC()
	res := &domain.Reservation{
		ID:         uuid.New().String(),
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		Content:    req.Content,
		Category:   req.Category,
		Status:     req.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
		LastEditBy: req.StaffID,
	}

	if err := s.repo.Create(res); err != nil {
		return nil, err
	}

	return res, nil
}

func (s *ReservationService) Get(id string) (*domain.Reservation, error) {
	return s.repo.FindByID(id)
}

func (s *ReservationService) GetByDateRange(start, end string) ([]*domain.Reservation, error) {
	return s.repo.FindByDateRange(start, end)
}

func (s *ReservationService) Delete(id string) error {
	return s.repo.Delete(id)
}

// UpdateWithLock applies the patch only if the stored document still carries
// the version the caller read. On a mismatch it returns a *ConflictError
// holding the store's current copy and writes nothing; the decision to merge,
// retry or discard stays with the caller.
func (s *ReservationService) UpdateWithLock(id string, patch *domain.ReservationPatch, expectedVersion time.Time, editorID string) (*domain.Reservation, error) {
	p := domain.ReservationPatch{}
	if patch != nil {
		p = *patch
	}
	p.LastEditBy = &editorID

	updated, err := s.repo.ConditionalUpdate(id, &p, expectedVersion)
	if err != nil {
		var mismatch *repository.VersionMismatchError
		if errors.As(err, &mismatch) {
			return nil, &ConflictError{Remote: mismatch.Current}
		}
		return nil, err
	}

	return updated, nil
}

// BatchUpdate pushes each item through UpdateWithLock independently and
// sequentially; one item's outcome never aborts the rest. Missing documents
// and stale versions count as conflicted, transport failures as errored.
// Conflicted items are reported back as-is, with no automatic resolution.
func (s *ReservationService) BatchUpdate(items []domain.BatchUpdateItem, editorID string) *domain.BatchResult {
	result := &domain.BatchResult{
		Total:   len(items),
		Results: make([]domain.BatchItemResult, 0, len(items)),
	}

	for _, item := range items {
		itemResult := domain.BatchItemResult{ID: item.ID}

		updated, err := s.UpdateWithLock(item.ID, &item.Patch, item.ExpectedVersion, editorID)
		switch {
		case err == nil:
			itemResult.Status = domain.BatchItemApplied
			itemResult.Updated = updated
			result.Succeeded++

		case errors.Is(err, repository.ErrNotFound):
			itemResult.Status = domain.BatchItemConflicted
			itemResult.Error = err.Error()
			result.Conflicted++

		default:
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				itemResult.Status = domain.BatchItemConflicted
				itemResult.Remote = conflict.Remote
				result.Conflicted++
			} else {
				itemResult.Status = domain.BatchItemErrored
				itemResult.Error = err.Error()
				result.Errored++
			}
		}

		result.Results = append(result.Results, itemResult)
	}

	return result
}
