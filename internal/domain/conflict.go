package domain

import (
	"fmt"
	"strings"
	"time"
)

type ResolutionStrategy string

const (
	ResolutionLastWriteWins ResolutionStrategy = "last_write_wins"
	ResolutionPriority      ResolutionStrategy = "priority"
	ResolutionManual        ResolutionStrategy = "manual"
)

// Field names reported in ConflictInfo.Fields and ConflictSummary entries.
const (
	FieldContent  = "content"
	FieldCategory = "category"
	FieldStatus   = "status"
)

// ConflictInfo captures a detected divergence between a caller's copy of a
// reservation and the store's current copy. It is transient: built by the
// detector, consumed by the resolver or the UI, never persisted.
type ConflictInfo struct {
	Local  *Reservation `json:"local"`
	Remote *Reservation `json:"remote"`
	// Fields lists the business-visible fields whose values differ, in
	// content/category/status order.
	Fields       []string `json:"fields"`
	LocalEditor  string   `json:"local_editor"`
	RemoteEditor string   `json:"remote_editor"`
}

// MergeResult is the resolver's verdict: the partial update to apply (possibly
// empty) and whether a human has to look at it first.
type MergeResult struct {
	Patch                *ReservationPatch `json:"patch"`
	RequiresManualReview bool              `json:"requires_manual_review"`
	Notes                []string          `json:"notes"`
}

// FieldConflict is one entry of a conflict summary, shaped so a UI can render
// a per-field local/remote prompt without re-parsing anything.
type FieldConflict struct {
	Field        string `json:"field"`
	LocalValue   string `json:"local_value"`
	RemoteValue  string `json:"remote_value"`
	RemoteEditor string `json:"remote_editor"`
}

type ConflictSummary struct {
	ReservationID   string          `json:"reservation_id"`
	Fields          []FieldConflict `json:"fields"`
	LocalUpdatedAt  time.Time       `json:"local_updated_at"`
	RemoteUpdatedAt time.Time       `json:"remote_updated_at"`
}

// String renders the summary as a flat operator-readable block, one line per
// conflicting field.
func (s *ConflictSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reservation %s changed elsewhere (local %s, remote %s)\n",
		s.ReservationID,
		s.LocalUpdatedAt.Format(time.RFC3339),
		s.RemoteUpdatedAt.Format(time.RFC3339),
	)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "  %s: %q -> %q (remote edit by %s)\n", f.Field, f.LocalValue, f.RemoteValue, f.RemoteEditor)
	}
	return b.String()
}

type BatchItemStatus string

const (
	BatchItemApplied    BatchItemStatus = "applied"
	BatchItemConflicted BatchItemStatus = "conflicted"
	BatchItemErrored    BatchItemStatus = "errored"
)

type BatchUpdateItem struct {
	ID              string           `json:"id" validate:"required"`
	Patch           ReservationPatch `json:"patch"`
	ExpectedVersion time.Time        `json:"expected_version" validate:"required"`
}

type BatchItemResult struct {
	ID     string          `json:"id"`
	Status BatchItemStatus `json:"status"`
	// Updated is the stored document after a successful write.
	Updated *Reservation `json:"updated,omitempty"`
	// Remote is the store's current copy when the item conflicted.
	Remote *Reservation `json:"remote,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type BatchResult struct {
	Total      int               `json:"total"`
	Succeeded  int               `json:"succeeded"`
	Conflicted int               `json:"conflicted"`
	Errored    int               `json:"errored"`
	Results    []BatchItemResult `json:"results"`
}

type BatchUpdateRequest struct {
	Items   []BatchUpdateItem `json:"items" validate:"required,min=1,dive"`
	StaffID string            `json:"staff_id" validate:"required"`
}

type DetectConflictRequest struct {
	Local  *Reservation `json:"local" validate:"required"`
	Remote *Reservation `json:"remote" validate:"required"`
}

type ResolveConflictRequest struct {
	Local    *Reservation       `json:"local" validate:"required"`
	Remote   *Reservation       `json:"remote" validate:"required"`
	Strategy ResolutionStrategy `json:"strategy" validate:"required,oneof=last_write_wins priority manual"`
}
