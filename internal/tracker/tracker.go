// Package tracker is the boundary the presentation layer talks to.
//
// Every read and command takes the caller's session explicitly and is gated
// by package policy before it reaches the store. Before each mutation the
// collection is reloaded from the persistence collaborator so writes made by
// another process are kept, and after it the full collection is written
// back. Write failures are logged and do not fail the operation.
//
// A Tracker is not safe for concurrent use.
package tracker

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/baiirun/worktrack/internal/identity"
	"github.com/baiirun/worktrack/internal/model"
	"github.com/baiirun/worktrack/internal/policy"
	"github.com/baiirun/worktrack/internal/report"
	"github.com/baiirun/worktrack/internal/store"
	"github.com/baiirun/worktrack/internal/workflow"
)

// Persistence is the key-value collaborator holding the session and the
// work item collection.
type Persistence interface {
	LoadItems() ([]model.WorkItem, error)
	SaveItems(items []model.WorkItem) error
	LoadSession() (model.Session, bool, error)
	SaveSession(sess model.Session) error
	ClearSession() error
}

type Tracker struct {
	store   *store.Store
	dir     *identity.Directory
	signer  *identity.Signer
	persist Persistence
	log     *zap.Logger
	current *model.Session

	// unsaved is set while the in-memory collection holds changes the last
	// write failed to persist. Reload leaves the collection alone until a
	// write succeeds again.
	unsaved bool
}

// New wires a tracker. Call Restore before serving requests.
func New(dir *identity.Directory, signer *identity.Signer, persist Persistence, log *zap.Logger, opts ...store.Option) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		store:   store.New(opts...),
		dir:     dir,
		signer:  signer,
		persist: persist,
		log:     log,
	}
}

// Restore rehydrates the collection and session from persistence. A missing
// key means an empty collection or no session. A persisted session whose
// token does not verify, or whose user has left the directory, is discarded.
func (t *Tracker) Restore() error {
	items, err := t.persist.LoadItems()
	if err != nil {
		return fmt.Errorf("failed to restore work items: %w", err)
	}
	if err := t.store.Load(items); err != nil {
		return fmt.Errorf("failed to restore work items: %w", err)
	}

	sess, ok, err := t.persist.LoadSession()
	if err != nil {
		t.log.Warn("discarding unreadable session", zap.Error(err))
		t.clearPersistedSession()
		return nil
	}
	if !ok {
		return nil
	}
	if err := t.checkRestored(sess); err != nil {
		t.log.Warn("discarding persisted session", zap.String("user", sess.Username), zap.Error(err))
		t.clearPersistedSession()
		return nil
	}
	t.current = &sess
	t.log.Debug("session restored", zap.String("user", sess.Username), zap.String("role", string(sess.Role)))
	return nil
}

// Reload replaces the in-memory collection with the persisted one.
func (t *Tracker) Reload() error {
	if t.unsaved {
		t.log.Debug("skipping reload with unsaved changes")
		return nil
	}
	items, err := t.persist.LoadItems()
	if err != nil {
		return fmt.Errorf("failed to reload work items: %w", err)
	}
	if err := t.store.Load(items); err != nil {
		return fmt.Errorf("failed to reload work items: %w", err)
	}
	return nil
}

func (t *Tracker) checkRestored(sess model.Session) error {
	if err := t.signer.Verify(sess); err != nil {
		return err
	}
	role, ok := t.dir.Role(sess.Username)
	if !ok {
		return fmt.Errorf("unknown user %s", sess.Username)
	}
	if role != sess.Role {
		return fmt.Errorf("role changed from %s to %s", sess.Role, role)
	}
	return nil
}

// Login authenticates and records the new session.
func (t *Tracker) Login(username, password string) (model.Session, error) {
	sess, err := t.dir.Authenticate(username, password)
	if err != nil {
		t.log.Info("login failed", zap.String("user", username), zap.Error(err))
		return model.Session{}, err
	}
	sess, err = t.signer.Issue(sess)
	if err != nil {
		return model.Session{}, err
	}

	t.current = &sess
	if err := t.persist.SaveSession(sess); err != nil {
		t.log.Warn("failed to persist session", zap.Error(err))
	}
	t.log.Info("logged in", zap.String("user", sess.Username), zap.String("role", string(sess.Role)))
	return sess, nil
}

// Logout forgets the current session.
func (t *Tracker) Logout() {
	if t.current != nil {
		t.log.Info("logged out", zap.String("user", t.current.Username))
	}
	t.current = nil
	t.clearPersistedSession()
}

func (t *Tracker) clearPersistedSession() {
	if err := t.persist.ClearSession(); err != nil {
		t.log.Warn("failed to clear persisted session", zap.Error(err))
	}
}

// CurrentSession returns the logged-in session, if any.
func (t *Tracker) CurrentSession() (model.Session, bool) {
	if t.current == nil {
		return model.Session{}, false
	}
	return *t.current, true
}

// Assignees lists everyone work can be assigned to.
func (t *Tracker) Assignees() []string {
	return t.dir.Assignees()
}

// CurrentVisibleItems returns the items sess may see in insertion order,
// restricted to filter unless filter is empty.
func (t *Tracker) CurrentVisibleItems(sess model.Session, filter model.Status) ([]model.WorkItem, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if filter != "" && !filter.IsValid() {
		return nil, fmt.Errorf("%w: unknown status filter %q", model.ErrInvalidInput, filter)
	}
	visible := policy.VisibleItems(sess.Role, sess.Username, t.store.Items())
	return policy.FilterStatus(visible, filter), nil
}

// Summarize reports over the items visible to sess. It requires viewReports.
func (t *Tracker) Summarize(sess model.Session) (report.Summary, error) {
	if err := requireSession(sess); err != nil {
		return report.Summary{}, err
	}
	if !policy.CanPerform(sess, policy.ActionViewReports, nil) {
		return report.Summary{}, fmt.Errorf("%w: %s may not view reports", model.ErrPermissionDenied, sess.Role)
	}
	return report.Summarize(policy.VisibleItems(sess.Role, sess.Username, t.store.Items())), nil
}

// Assign creates a work item assigned by sess.Username. The assignee must be
// one of Assignees().
func (t *Tracker) Assign(sess model.Session, input model.AssignInput) (model.WorkItem, error) {
	if err := requireSession(sess); err != nil {
		return model.WorkItem{}, err
	}
	if !policy.CanPerform(sess, policy.ActionAssign, nil) {
		return model.WorkItem{}, fmt.Errorf("%w: %s may not assign work", model.ErrPermissionDenied, sess.Role)
	}
	if !t.isAssignee(input.AssignedTo) {
		return model.WorkItem{}, fmt.Errorf("%w: unknown assignee %q (use 'worktrack users' to list them)", model.ErrInvalidInput, input.AssignedTo)
	}
	if err := t.Reload(); err != nil {
		return model.WorkItem{}, err
	}

	item, err := t.store.Create(input, sess.Username)
	if err != nil {
		return model.WorkItem{}, err
	}
	t.log.Info("work assigned",
		zap.String("id", item.ID),
		zap.String("to", item.AssignedTo),
		zap.String("by", item.AssignedBy),
		zap.String("priority", string(item.Priority)))
	t.saveItems()
	return item, nil
}

func (t *Tracker) isAssignee(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		// Normalize reports the missing field.
		return true
	}
	for _, a := range t.dir.Assignees() {
		if a == name {
			return true
		}
	}
	return false
}

// UpdateStatus applies change to the item with the given id on behalf of
// sess. Advancing needs updateOwnStatus on the item; a direct set needs
// updateAnyStatus on it. An advance made with AdvanceFrom fails with
// model.ErrInvalidTransition unless the item is in the expected status.
func (t *Tracker) UpdateStatus(sess model.Session, id string, change StatusChange) (model.WorkItem, error) {
	if err := requireSession(sess); err != nil {
		return model.WorkItem{}, err
	}
	if err := t.Reload(); err != nil {
		return model.WorkItem{}, err
	}
	item, err := t.store.Get(id)
	if err != nil {
		return model.WorkItem{}, err
	}
	if !policy.CanView(sess, &item) {
		return model.WorkItem{}, fmt.Errorf("%w: %s is not assigned to %s", model.ErrPermissionDenied, id, sess.Username)
	}

	var updated model.WorkItem
	if change.advance {
		if !policy.CanPerform(sess, policy.ActionUpdateOwnStatus, &item) {
			return model.WorkItem{}, fmt.Errorf("%w: %s may not advance %s", model.ErrPermissionDenied, sess.Username, id)
		}
		if change.from != "" && item.Status != change.from {
			return model.WorkItem{}, fmt.Errorf("%w: %s is %s, not %s", model.ErrInvalidTransition, id, item.Status, change.from)
		}
		updated, err = t.store.Advance(id)
	} else {
		if !policy.CanPerform(sess, policy.ActionUpdateAnyStatus, &item) {
			return model.WorkItem{}, fmt.Errorf("%w: %s may not set the status of %s", model.ErrPermissionDenied, sess.Username, id)
		}
		updated, err = t.store.UpdateStatus(id, change.to)
	}
	if err != nil {
		return model.WorkItem{}, err
	}

	t.log.Info("status changed",
		zap.String("id", id),
		zap.String("by", sess.Username),
		zap.String("from", string(item.Status)),
		zap.String("to", string(updated.Status)))
	t.saveItems()
	return updated, nil
}

// Advance is UpdateStatus with the guided next step.
func (t *Tracker) Advance(sess model.Session, id string) (model.WorkItem, error) {
	return t.UpdateStatus(sess, id, Advance())
}

// SetStatus is UpdateStatus with a direct set.
func (t *Tracker) SetStatus(sess model.Session, id string, status model.Status) (model.WorkItem, error) {
	return t.UpdateStatus(sess, id, SetTo(status))
}

// CanAdvance reports whether sess is offered the guided step on item.
func (t *Tracker) CanAdvance(sess model.Session, item model.WorkItem) bool {
	return policy.CanPerform(sess, policy.ActionUpdateOwnStatus, &item) && !workflow.IsTerminal(item.Status)
}

// CanSetStatus reports whether sess may direct-set item's status.
func (t *Tracker) CanSetStatus(sess model.Session, item model.WorkItem) bool {
	return policy.CanPerform(sess, policy.ActionUpdateAnyStatus, &item)
}

func (t *Tracker) saveItems() {
	if err := t.persist.SaveItems(t.store.Items()); err != nil {
		t.unsaved = true
		t.log.Warn("failed to persist work items", zap.Error(err))
		return
	}
	t.unsaved = false
}

func requireSession(sess model.Session) error {
	if sess.Username == "" || !sess.Role.IsValid() {
		return model.ErrNoSession
	}
	return nil
}

// IsRecoverable reports whether err is one of the classified core failures
// the presentation layer should render as a message.
func IsRecoverable(err error) bool {
	for _, kind := range []error{
		model.ErrInvalidCredentials,
		model.ErrPermissionDenied,
		model.ErrNotFound,
		model.ErrInvalidTransition,
		model.ErrInvalidInput,
		model.ErrNoSession,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
