package service

import (
	"fmt"
	"strings"

	"salon-sync-server/internal/domain"
)

// ConflictService decides whether two copies of a reservation really diverge
// and, when they do, computes a merge under a caller-chosen strategy. It holds
// no state and touches no storage; everything it produces is transient.
type ConflictService struct{}

func NewConflictService() *ConflictService {
	return &ConflictService{}
}

// Detect compares a caller's copy against the store's copy. Equal
// last-modified timestamps mean the copies are causally identical; differing
// timestamps with identical visible fields (a no-op re-save elsewhere) are not
// a conflict either. Returns nil when there is nothing to resolve.
func (s *ConflictService) Detect(local, remote *domain.Reservation) *domain.ConflictInfo {
	if local == nil || remote == nil {
		return nil
	}
	if local.UpdatedAt.Equal(remote.UpdatedAt) {
		return nil
	}

	var fields []string
	if local.Content != remote.Content {
		fields = append(fields, domain.FieldContent)
	}
	if local.Category != remote.Category {
		fields = append(fields, domain.FieldCategory)
	}
	if local.Status != remote.Status {
		fields = append(fields, domain.FieldStatus)
	}

	if len(fields) == 0 {
		return nil
	}

	return &domain.ConflictInfo{
		Local:        local,
		Remote:       remote,
		Fields:       fields,
		LocalEditor:  local.LastEditBy,
		RemoteEditor: remote.LastEditBy,
	}
}

// Resolve computes a merge for the detected conflict under the given
// strategy. It never writes; applying the returned patch is the caller's
// explicit decision.
func (s *ConflictService) Resolve(info *domain.ConflictInfo, strategy domain.ResolutionStrategy) (*domain.MergeResult, error) {
	switch strategy {
	case domain.ResolutionLastWriteWins:
		return s.resolveLastWriteWins(info), nil
	case domain.ResolutionPriority:
		return s.resolvePriority(info), nil
	case domain.ResolutionManual:
		return s.resolveManual(info), nil
	default:
		return nil, fmt.Errorf("unknown resolution strategy: %s", strategy)
	}
}

func (s *ConflictService) resolveLastWriteWins(info *domain.ConflictInfo) *domain.MergeResult {
	winner, side := info.Remote, "remote"
	if info.Local.UpdatedAt.After(info.Remote.UpdatedAt) {
		winner, side = info.Local, "local"
	}

	content := winner.Content
	category := winner.Category
	status := winner.Status
	editor := winner.LastEditBy

	return &domain.MergeResult{
		Patch: &domain.ReservationPatch{
			Content:    &content,
			Category:   &category,
			Status:     &status,
			LastEditBy: &editor,
		},
		RequiresManualReview: false,
		Notes: []string{
			fmt.Sprintf("kept %s copy in full: last modified %s by %s",
				side, winner.UpdatedAt.Format("2006-01-02 15:04:05"), winner.LastEditBy),
		},
	}
}

// resolvePriority applies a fixed per-field rule set: status follows the
// remote (it reflects the live booking state), content follows the longer
// text, category follows the later write. Confidence drops as the conflicting
// surface grows, so three or more fields force a manual review.
func (s *ConflictService) resolvePriority(info *domain.ConflictInfo) *domain.MergeResult {
	patch := &domain.ReservationPatch{}
	var notes []string

	// The editor on the merged document follows the category decision when
	// category is in conflict, otherwise the later write.
	editorSide := info.Remote
	if info.Local.UpdatedAt.After(info.Remote.UpdatedAt) {
		editorSide = info.Local
	}

	for _, field := range info.Fields {
		switch field {
		case domain.FieldStatus:
			status := info.Remote.Status
			patch.Status = &status
			notes = append(notes, fmt.Sprintf("status: kept remote value %q (current booking state)", status))

		case domain.FieldContent:
			content := info.Remote.Content
			side := "remote"
			if len(info.Local.Content) > len(info.Remote.Content) {
				content = info.Local.Content
				side = "local"
			}
			patch.Content = &content
			notes = append(notes, fmt.Sprintf("content: kept %s text (longer)", side))

		case domain.FieldCategory:
			category := info.Remote.Category
			winner := info.Remote
			side := "remote"
			if info.Local.UpdatedAt.After(info.Remote.UpdatedAt) {
				category = info.Local.Category
				winner = info.Local
				side = "local"
			}
			patch.Category = &category
			editorSide = winner
			notes = append(notes, fmt.Sprintf("category: kept %s value %q (later edit)", side, category))
		}
	}

	editor := editorSide.LastEditBy
	patch.LastEditBy = &editor

	review := len(info.Fields) >= 3
	if review {
		notes = append(notes, fmt.Sprintf("%d fields conflict at once; please review the merge", len(info.Fields)))
	}

	return &domain.MergeResult{
		Patch:                patch,
		RequiresManualReview: review,
		Notes:                notes,
	}
}

func (s *ConflictService) resolveManual(info *domain.ConflictInfo) *domain.MergeResult {
	return &domain.MergeResult{
		Patch:                &domain.ReservationPatch{},
		RequiresManualReview: true,
		Notes: []string{
			fmt.Sprintf("manual merge requested: %s changed on both sides", strings.Join(info.Fields, ", ")),
		},
	}
}

// Summarize renders the conflict for an operator prompt: one record per
// conflicting field with both values and the remote editor, plus both sides'
// last-modified timestamps.
func (s *ConflictService) Summarize(info *domain.ConflictInfo) *domain.ConflictSummary {
	summary := &domain.ConflictSummary{
		ReservationID:   info.Remote.ID,
		LocalUpdatedAt:  info.Local.UpdatedAt,
		RemoteUpdatedAt: info.Remote.UpdatedAt,
	}

	for _, field := range info.Fields {
		fc := domain.FieldConflict{Field: field, RemoteEditor: info.RemoteEditor}
		switch field {
		case domain.FieldContent:
			fc.LocalValue = info.Local.Content
			fc.RemoteValue = info.Remote.Content
		case domain.FieldCategory:
			fc.LocalValue = string(info.Local.Category)
			fc.RemoteValue = string(info.Remote.Category)
		case domain.FieldStatus:
			fc.LocalValue = string(info.Local.Status)
			fc.RemoteValue = string(info.Remote.Status)
		}
		summary.Fields = append(summary.Fields, fc)
	}

	return summary
}
