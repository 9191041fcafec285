package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"salon-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// ErrNotFound is returned when the referenced reservation id has no document.
var ErrNotFound = errors.New("reservation not found")

// VersionMismatchError reports that a conditional update found a different
// last-modified timestamp than the caller expected. Current carries the
// store's copy so the caller can run conflict detection without another read.
type VersionMismatchError struct {
	Current *domain.Reservation
}

func (e *VersionMismatchError) Error() string {
	return "reservation version mismatch"
}

// CancelFunc tears down a watch. After it returns, the watch callback will not
// be invoked again.
type CancelFunc func()

type ReservationRepository interface {
	Create(res *domain.Reservation) error
	FindByID(id string) (*domain.Reservation, error)
	FindByDateRange(start, end string) ([]*domain.Reservation, error)
	// Update applies the patch unconditionally; it performs no version check.
	Update(id string, patch *domain.ReservationPatch) (*domain.Reservation, error)
	// ConditionalUpdate applies the patch only when the stored document's
	// updated_at equals expected. A mismatch is a *VersionMismatchError; the
	// document's MVCC rev closes the window between read and write.
	ConditionalUpdate(id string, patch *domain.ReservationPatch, expected time.Time) (*domain.Reservation, error)
	Delete(id string) error
	WatchByDateRange(start, end string, onChange func([]*domain.Reservation)) (CancelFunc, error)
	WatchByDate(date string, onChange func([]*domain.Reservation)) (CancelFunc, error)
}

type reservationRepository struct {
	client *kivik.Client
	dbName string
}

func NewReservationRepository(client *kivik.Client, dbName string) ReservationRepository {
	return &reservationRepository{
		client: client,
		dbName: dbName,
	}
}

func docID(id string) string {
	return fmt.Sprintf("reservation:%s", id)
}

func (r *reservationRepository) Create(res *domain.Reservation) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(context.Background(), docID(res.ID), res)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	return nil
}

func (r *reservationRepository) FindByID(id string) (*domain.Reservation, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), docID(id))

	var res domain.Reservation
	if err := row.ScanDoc(&res); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &res, nil
}

func (r *reservationRepository) FindByDateRange(start, end string) ([]*domain.Reservation, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"date":      map[string]interface{}{"$gte": start, "$lte": end},
			"time_slot": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.ScanDoc(&res); err != nil {
			continue
		}
		reservations = append(reservations, &res)
	}

	sortSchedule(reservations)

	return reservations, nil
}

// sortSchedule orders by date ascending, then time slot ascending. Both keys
// are zero-padded, so plain string comparison gives schedule order.
func sortSchedule(reservations []*domain.Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		if reservations[i].Date != reservations[j].Date {
			return reservations[i].Date < reservations[j].Date
		}
		return reservations[i].TimeSlot < reservations[j].TimeSlot
	})
}

func (r *reservationRepository) Update(id string, patch *domain.ReservationPatch) (*domain.Reservation, error) {
	db := r.client.DB(r.dbName)

	doc, err := r.fetchDoc(id)
	if err != nil {
		return nil, err
	}

	applyPatch(doc, patch)

	if _, err := db.Put(context.Background(), docID(id), doc); err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	return reservationFromDoc(doc)
}

func (r *reservationRepository) ConditionalUpdate(id string, patch *domain.ReservationPatch, expected time.Time) (*domain.Reservation, error) {
	db := r.client.DB(r.dbName)

	doc, err := r.fetchDoc(id)
	if err != nil {
		return nil, err
	}

	stored, err := docUpdatedAt(doc)
	if err != nil {
		return nil, err
	}

	if !stored.Equal(expected) {
		current, err := reservationFromDoc(doc)
		if err != nil {
			return nil, err
		}
		return nil, &VersionMismatchError{Current: current}
	}

	applyPatch(doc, patch)

	if _, err := db.Put(context.Background(), docID(id), doc); err != nil {
		// A rev conflict means another writer got in between our read and
		// this write; surface it as a version mismatch with the fresh copy.
		if kivik.HTTPStatus(err) == http.StatusConflict {
			current, ferr := r.FindByID(id)
			if ferr != nil {
				return nil, ferr
			}
			return nil, &VersionMismatchError{Current: current}
		}
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	return reservationFromDoc(doc)
}

func (r *reservationRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)

	doc, err := r.fetchDoc(id)
	if err != nil {
		return err
	}

	rev, _ := doc["_rev"].(string)
	if _, err := db.Delete(context.Background(), docID(id), rev); err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}

	return nil
}

func (r *reservationRepository) fetchDoc(id string) (map[string]interface{}, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), docID(id))

	var doc map[string]interface{}
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch reservation: %w", err)
	}

	return doc, nil
}

func applyPatch(doc map[string]interface{}, patch *domain.ReservationPatch) {
	if patch != nil {
		if patch.Content != nil {
			doc["content"] = *patch.Content
		}
		if patch.Category != nil {
			doc["category"] = *patch.Category
		}
		if patch.Status != nil {
			doc["status"] = *patch.Status
		}
		if patch.LastEditBy != nil {
			doc["last_edit_by"] = *patch.LastEditBy
		}
	}
	doc["updated_at"] = time.Now().UTC()
}

func docUpdatedAt(doc map[string]interface{}) (time.Time, error) {
	raw, ok := doc["updated_at"].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("reservation document has no updated_at")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return t, nil
}

func reservationFromDoc(doc map[string]interface{}) (*domain.Reservation, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reservation document: %w", err)
	}

	var res domain.Reservation
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode reservation document: %w", err)
	}

	return &res, nil
}
