// Package identity resolves login credentials to a session.
//
// The user directory is a fixed, in-process list. It stands in for an
// external identity provider and offers no lockout or rate limiting.
package identity

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/baiirun/worktrack/internal/model"
)

// Account is one directory entry as configured.
type Account struct {
	Username string
	Password string
	Role     model.Role
}

// DefaultAccounts is the built-in directory.
var DefaultAccounts = []Account{
	{Username: "admin", Password: "admin123", Role: model.RoleAdmin},
	{Username: "user1", Password: "pass123", Role: model.RoleUser1},
	{Username: "user2", Password: "pass123", Role: model.RoleUser2},
	{Username: "user3", Password: "pass123", Role: model.RoleUser3},
}

// entry keeps the configured password until the first login attempt for the
// user, then only its bcrypt hash.
type entry struct {
	role     model.Role
	password string
	once     sync.Once
	hash     []byte
	hashErr  error
}

func (e *entry) hashed(cost int) ([]byte, error) {
	e.once.Do(func() {
		e.hash, e.hashErr = bcrypt.GenerateFromPassword([]byte(e.password), cost)
		e.password = ""
	})
	return e.hash, e.hashErr
}

// Directory authenticates usernames against bcrypt password hashes. A
// password is hashed on the first login attempt for its user, so building a
// directory costs nothing.
type Directory struct {
	cost    int
	entries map[string]*entry
	order   []string
	extra   []string
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithAssignees adds names that can receive work but cannot log in.
func WithAssignees(names ...string) DirectoryOption {
	return func(d *Directory) { d.extra = append(d.extra, names...) }
}

// NewDirectory validates the accounts. cost is a bcrypt cost; pass
// bcrypt.MinCost in tests.
func NewDirectory(accounts []Account, cost int, opts ...DirectoryOption) (*Directory, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}
	d := &Directory{cost: cost, entries: make(map[string]*entry, len(accounts))}
	for _, a := range accounts {
		if a.Username == "" {
			return nil, fmt.Errorf("account with empty username")
		}
		if !a.Role.IsValid() {
			return nil, fmt.Errorf("account %s: unknown role %q", a.Username, a.Role)
		}
		if _, dup := d.entries[a.Username]; dup {
			return nil, fmt.Errorf("duplicate account %s", a.Username)
		}
		if len(a.Password) > 72 {
			return nil, fmt.Errorf("account %s: %w", a.Username, bcrypt.ErrPasswordTooLong)
		}
		d.entries[a.Username] = &entry{role: a.Role, password: a.Password}
		d.order = append(d.order, a.Username)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Authenticate returns a session for an exact username match whose password
// verifies. Empty fields fail with model.ErrMissingCredentials, anything else
// with model.ErrInvalidCredentials.
func (d *Directory) Authenticate(username, password string) (model.Session, error) {
	if username == "" || password == "" {
		return model.Session{}, model.ErrMissingCredentials
	}
	e, ok := d.entries[username]
	if !ok {
		return model.Session{}, model.ErrInvalidCredentials
	}
	hash, err := e.hashed(d.cost)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to hash password for %s: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return model.Session{}, model.ErrInvalidCredentials
	}
	return model.Session{Username: username, Role: e.role}, nil
}

// Role returns the role of a known user.
func (d *Directory) Role(username string) (model.Role, bool) {
	e, ok := d.entries[username]
	if !ok {
		return "", false
	}
	return e.role, true
}

// Assignees lists everyone who can be assigned work: directory users in
// directory order, then the extra names sorted, without duplicates.
func (d *Directory) Assignees() []string {
	seen := make(map[string]bool, len(d.order)+len(d.extra))
	out := make([]string, 0, len(d.order)+len(d.extra))
	for _, name := range d.order {
		seen[name] = true
		out = append(out, name)
	}

	extra := append([]string(nil), d.extra...)
	sort.Strings(extra)
	for _, name := range extra {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
