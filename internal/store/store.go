// Package store holds the in-memory work item collection.
//
// The store is the data authority only: it validates input and status
// literals but performs no access checks. Callers apply package policy
// before invoking any mutating method. A Store is not safe for concurrent use.
package store

import (
	"fmt"
	"time"

	"github.com/baiirun/worktrack/internal/model"
	"github.com/baiirun/worktrack/internal/workflow"
)

// Store keeps work items in insertion order.
type Store struct {
	items []model.WorkItem
	index map[string]int
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp items.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		index: make(map[string]int),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the current time in the form items are persisted with, so a
// save/load cycle reproduces the value exactly.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create validates input and appends a new pending item assigned by assignedBy.
func (s *Store) Create(input model.AssignInput, assignedBy string) (model.WorkItem, error) {
	in, err := input.Normalize()
	if err != nil {
		return model.WorkItem{}, err
	}

	now := s.stamp()
	item := model.WorkItem{
		ID:          s.freshID(),
		Title:       in.Title,
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		AssignedBy:  assignedBy,
		Status:      model.StatusPending,
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
	return item, nil
}

func (s *Store) freshID() string {
	for {
		id := model.GenerateID()
		if _, taken := s.index[id]; !taken {
			return id
		}
	}
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (model.WorkItem, error) {
	i, ok := s.index[id]
	if !ok {
		return model.WorkItem{}, fmt.Errorf("%w: %s (use 'worktrack list' to see available items)", model.ErrNotFound, id)
	}
	return s.items[i], nil
}

// UpdateStatus direct-sets the status of the item with the given id.
func (s *Store) UpdateStatus(id string, status model.Status) (model.WorkItem, error) {
	return s.mutate(id, func(item *model.WorkItem, now time.Time) error {
		return workflow.SetStatus(item, status, now)
	})
}

// Advance moves the item with the given id one step along the guided path.
func (s *Store) Advance(id string) (model.WorkItem, error) {
	return s.mutate(id, workflow.Advance)
}

func (s *Store) mutate(id string, fn func(*model.WorkItem, time.Time) error) (model.WorkItem, error) {
	i, ok := s.index[id]
	if !ok {
		return model.WorkItem{}, fmt.Errorf("%w: %s (use 'worktrack list' to see available items)", model.ErrNotFound, id)
	}
	item := s.items[i]
	now := s.stamp()
	if now.Before(item.CreatedAt) {
		now = item.CreatedAt
	}
	if err := fn(&item, now); err != nil {
		return model.WorkItem{}, err
	}
	s.items[i] = item
	return item, nil
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []model.WorkItem {
	out := make([]model.WorkItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

// Load replaces the collection, keeping the given order.
// Items with an empty or duplicate id are rejected.
func (s *Store) Load(items []model.WorkItem) error {
	index := make(map[string]int, len(items))
	for i, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: item at position %d has no id", model.ErrInvalidInput, i)
		}
		if _, dup := index[item.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %s", model.ErrInvalidInput, item.ID)
		}
		index[item.ID] = i
	}
	s.items = make([]model.WorkItem, len(items))
	copy(s.items, items)
	s.index = index
	return nil
}
