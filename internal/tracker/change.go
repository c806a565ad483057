package tracker

import "github.com/baiirun/worktrack/internal/model"

// StatusChange is either the guided next step or a direct set to a status.
// The two carry different permissions; see UpdateStatus.
type StatusChange struct {
	advance bool
	from    model.Status // advance only from this status when set
	to      model.Status
}

// Advance requests the guided next step.
func Advance() StatusChange {
	return StatusChange{advance: true}
}

// AdvanceFrom requests the guided next step only if the item is currently
// in status from.
func AdvanceFrom(from model.Status) StatusChange {
	return StatusChange{advance: true, from: from}
}

// SetTo requests a direct set to status.
func SetTo(status model.Status) StatusChange {
	return StatusChange{to: status}
}

// IsAdvance reports whether c is the guided step.
func (c StatusChange) IsAdvance() bool {
	return c.advance
}

func (c StatusChange) String() string {
	if c.advance {
		if c.from != "" {
			return "advance from " + string(c.from)
		}
		return "advance"
	}
	return "set " + string(c.to)
}
