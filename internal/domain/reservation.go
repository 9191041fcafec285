package domain

import "time"

type Category string

const (
	CategoryHaircut   Category = "haircut"
	CategoryColor     Category = "color"
	CategoryPerm      Category = "perm"
	CategoryTreatment Category = "treatment"
	CategoryOther     Category = "other"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusBooked    Status = "booked"
	StatusBlocked   Status = "blocked"
)

// DateLayout is the calendar-date form used for the temporal key. Keeping it
// zero-padded makes date strings sort the same lexically and chronologically,
// which the range queries rely on.
const DateLayout = "2006-01-02"

type Reservation struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	TimeSlot string   `json:"time_slot"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is assigned by the repository on every successful write and is
	// the document's optimistic version: callers echo it back as
	// ExpectedVersion and any mismatch is a conflict.
	UpdatedAt  time.Time `json:"updated_at"`
	LastEditBy string    `json:"last_edit_by"`
}

// ReservationPatch is a structured partial update: one optional field per
// mutable attribute. A nil field is left untouched.
type ReservationPatch struct {
	Content    *string   `json:"content,omitempty"`
	Category   *Category `json:"category,omitempty"`
	Status     *Status   `json:"status,omitempty"`
	LastEditBy *string   `json:"last_edit_by,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p *ReservationPatch) IsEmpty() bool {
	return p == nil || (p.Content == nil && p.Category == nil && p.Status == nil && p.LastEditBy == nil)
}

type CreateReservationRequest struct {
	Date     string   `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string   `json:"time_slot" validate:"required"`
	Content  string   `json:"content"`
	Category Category `json:"category" validate:"required,oneof=haircut color perm treatment other"`
	Status   Status   `json:"status" validate:"required,oneof=available booked blocked"`
	StaffID  string   `json:"staff_id" validate:"required"`
}

type UpdateReservationRequest struct {
	Content         *string   `json:"content"`
	Category        *Category `json:"category" validate:"omitempty,oneof=haircut color perm treatment other"`
	Status          *Status   `json:"status" validate:"omitempty,oneof=available booked blocked"`
	ExpectedVersion time.Time `json:"expected_version" validate:"required"`
	StaffID         string    `json:"staff_id" validate:"required"`
}

// Patch extracts the mutable-field portion of the request.
func (r *UpdateReservationRequest) Patch() *ReservationPatch {
	return &ReservationPatch{
		Content:  r.Content,
		Category: r.Category,
		Status:   r.Status,
	}
}

var timeSlots = buildTimeSlots()

// TimeSlots returns the fixed slot enumeration: half-hour labels across
// business hours, 09:00 through 18:30, in schedule order.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

func IsValidTimeSlot(slot string) bool {
	for _, s := range timeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

func buildTimeSlots() []string {
	var slots []string
	day := time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		slots = append(slots, day.Format("15:04"))
		day = day.Add(30 * time.Minute)
	}
	return slots
}
