package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in guided-path order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts a user-supplied literal into a Status.
// An empty string is rejected; callers that treat empty as "all" check first.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q (want pending, in-progress or completed)", ErrInvalidTransition, s)
	}
	return st, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type WorkItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  string    `json:"assignedTo"`
	AssignedBy  string    `json:"assignedBy"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AssignInput carries the user-supplied fields of a new work item.
type AssignInput struct {
	Title       string
	Description string
	AssignedTo  string
	Priority    Priority
}

// Normalize trims whitespace, defaults an empty priority to medium, and
// reports the first missing or invalid field.
func (in AssignInput) Normalize() (AssignInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}

	switch {
	case in.Title == "":
		return in, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case in.Description == "":
		return in, fmt.Errorf("%w: description is required", ErrInvalidInput)
	case in.AssignedTo == "":
		return in, fmt.Errorf("%w: assignee is required", ErrInvalidInput)
	case !in.Priority.IsValid():
		return in, fmt.Errorf("%w: invalid priority %q (want low, medium or high)", ErrInvalidInput, in.Priority)
	}
	return in, nil
}

// GenerateID returns a time-ordered unique identifier for a work item.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}
