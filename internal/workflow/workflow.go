// Package workflow defines the legal status moves for a work item.
//
// There are two mutation paths with different authority levels:
//
//   - Advance walks the guided path pending -> in-progress -> completed,
//     one step per call. Completed is terminal.
//   - SetStatus assigns any valid status directly, including moving a
//     completed item back to pending. It bypasses the guided path and must
//     only be reachable behind the updateAnyStatus permission.
//
// Neither function checks who is calling; see package policy.
package workflow

import (
	"fmt"
	"time"

	"github.com/baiirun/worktrack/internal/model"
)

// Next returns the successor of s on the guided path.
// ok is false when s is terminal or unknown.
func Next(s model.Status) (next model.Status, ok bool) {
	switch s {
	case model.StatusPending:
		return model.StatusInProgress, true
	case model.StatusInProgress:
		return model.StatusCompleted, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no guided move leaves s.
func IsTerminal(s model.Status) bool {
	return s == model.StatusCompleted
}

// Advance moves item one step along the guided path and stamps UpdatedAt.
// The item is left untouched when the move is not allowed.
func Advance(item *model.WorkItem, now time.Time) error {
	next, ok := Next(item.Status)
	if !ok {
		return fmt.Errorf("%w: cannot advance %s from %s", model.ErrInvalidTransition, item.ID, item.Status)
	}
	item.Status = next
	item.UpdatedAt = now
	return nil
}

// SetStatus assigns status directly and stamps UpdatedAt.
func SetStatus(item *model.WorkItem, status model.Status, now time.Time) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", model.ErrInvalidTransition, status)
	}
	item.Status = status
	item.UpdatedAt = now
	return nil
}
