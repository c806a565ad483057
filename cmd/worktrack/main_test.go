package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/baiirun/worktrack/internal/db"
	"github.com/baiirun/worktrack/internal/model"
	"github.com/baiirun/worktrack/internal/report"
)

// cli runs worktrack commands against a private database.
type cli struct {
	t      *testing.T
	dbPath string
	stdin  string
}

func setupCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &cli{t: t, dbPath: filepath.Join(t.TempDir(), "test.db")}
}

func resetFlags() {
	flagConfig = ""
	flagDB = ""
	flagLogLevel = ""
	flagJSON = false
	flagPassword = ""
	flagDescription = ""
	flagAssignee = ""
	flagPriority = ""
	flagStatus = ""
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(c.stdin))
	rootCmd.SetArgs(append(args, "--db", c.dbPath, "--log-level", "error"))
	err := rootCmd.Execute()
	c.stdin = ""
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("worktrack %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (c *cli) login(user, password string) {
	c.t.Helper()
	c.mustRun("login", user, "--password", password)
}

func (c *cli) assign(title, to string) ItemJSON {
	c.t.Helper()
	out := c.mustRun("assign", title, "-d", "details for "+title, "--to", to, "--priority", "high", "--json")
	var item ItemJSON
	if err := json.Unmarshal([]byte(out), &item); err != nil {
		c.t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	return item
}

func (c *cli) list(args ...string) []ItemJSON {
	c.t.Helper()
	out := c.mustRun(append([]string{"list", "--json"}, args...)...)
	var items []ItemJSON
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		c.t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	return items
}

func TestLogin_Whoami(t *testing.T) {
	c := setupCLI(t)

	out := c.mustRun("login", "admin", "--password", "admin123")
	if !strings.Contains(out, "Logged in as admin (admin)") {
		t.Errorf("login output = %q", out)
	}

	out = c.mustRun("whoami", "--json")
	var sess SessionJSON
	if err := json.Unmarshal([]byte(out), &sess); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if sess.Username != "admin" || sess.Role != "admin" {
		t.Errorf("whoami = %+v", sess)
	}
	want := []string{"assign", "viewAll", "updateAnyStatus", "viewReports"}
	for _, p := range want {
		found := false
		for _, got := range sess.Permissions {
			if got == p {
				found = true
			}
		}
		if !found {
			t.Errorf("permissions %v missing %s", sess.Permissions, p)
		}
	}
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	c := setupCLI(t)

	c.stdin = "pass123\n"
	out := c.mustRun("login", "user2")
	if !strings.Contains(out, "Logged in as user2 (user2)") {
		t.Errorf("login output = %q", out)
	}
}

func TestLogin_Failures(t *testing.T) {
	c := setupCLI(t)

	_, err := c.run("login", "admin", "--password", "wrong")
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}

	_, err = c.run("login", "admin")
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("empty password: err = %v, want ErrInvalidCredentials", err)
	}

	if _, err := c.run("whoami"); !errors.Is(err, model.ErrNoSession) {
		t.Errorf("whoami after failed login: err = %v, want ErrNoSession", err)
	}
}

func TestLogout(t *testing.T) {
	c := setupCLI(t)
	c.login("user1", "pass123")

	out := c.mustRun("logout")
	if !strings.Contains(out, "Logged out user1") {
		t.Errorf("logout output = %q", out)
	}
	if _, err := c.run("list"); !errors.Is(err, model.ErrNoSession) {
		t.Errorf("list after logout: err = %v, want ErrNoSession", err)
	}

	out = c.mustRun("logout")
	if !strings.Contains(out, "Not logged in") {
		t.Errorf("second logout output = %q", out)
	}
}

func TestUsers(t *testing.T) {
	c := setupCLI(t)

	out := c.mustRun("users")
	for _, name := range []string{"admin", "user1", "user2", "user3", "John Doe", "Jane Smith", "Mike Johnson"} {
		if !strings.Contains(out, name) {
			t.Errorf("users output missing %q:\n%s", name, out)
		}
	}
}

func TestWorkflow_AssignAdvanceReport(t *testing.T) {
	c := setupCLI(t)

	c.login("admin", "admin123")
	item := c.assign("Fix bug", "user2")
	if item.Status != "pending" || item.Priority != "high" || item.AssignedBy != "admin" {
		t.Errorf("assigned item = %+v", item)
	}
	if item.CanAdvance {
		t.Error("admin should not be offered a guided advance")
	}
	if !item.CanSet {
		t.Error("admin should be offered a direct status set")
	}

	c.login("user2", "pass123")
	items := c.list()
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("user2 sees %+v, want only %s", items, item.ID)
	}
	if !items[0].CanAdvance || items[0].CanSet {
		t.Errorf("user2 actions = advance:%v set:%v, want advance only", items[0].CanAdvance, items[0].CanSet)
	}

	out := c.mustRun("start", item.ID)
	if !strings.Contains(out, "is now in-progress") {
		t.Errorf("start output = %q", out)
	}
	out = c.mustRun("advance", item.ID)
	if !strings.Contains(out, "is now completed") {
		t.Errorf("advance output = %q", out)
	}
	if _, err := c.run("advance", item.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("advance completed: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := c.run("report"); !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("user2 report: err = %v, want ErrPermissionDenied", err)
	}

	c.login("admin", "admin123")
	out = c.mustRun("report", "--json")
	var sum report.Summary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if sum.TotalTasks != 1 || sum.CompletedTasks != 1 || sum.CompletionRate != 100 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sum.ByAssignee) != 1 || sum.ByAssignee[0].Assignee != "user2" {
		t.Errorf("by assignee = %+v", sum.ByAssignee)
	}

	out = c.mustRun("report")
	if !strings.Contains(out, "Completion rate: 100%") {
		t.Errorf("report output = %q", out)
	}
}

func TestAssign_Validation(t *testing.T) {
	c := setupCLI(t)

	c.login("user3", "pass123")
	if _, err := c.run("assign", "Nope", "-d", "x", "--to", "user2"); !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("user3 assign: err = %v, want ErrPermissionDenied", err)
	}

	c.login("user1", "pass123")
	tests := []struct {
		name string
		args []string
	}{
		{"missing description", []string{"assign", "Title", "--to", "user2"}},
		{"missing assignee", []string{"assign", "Title", "-d", "x"}},
		{"unknown assignee", []string{"assign", "Title", "-d", "x", "--to", "nobody"}},
		{"bad priority", []string{"assign", "Title", "-d", "x", "--to", "user2", "--priority", "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.run(tt.args...); !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	if items := c.list(); len(items) != 0 {
		t.Errorf("failed assigns created %d items", len(items))
	}
}

func TestList_FilterAndVisibility(t *testing.T) {
	c := setupCLI(t)

	c.login("user1", "pass123")
	mine := c.assign("Mine", "user1")
	theirs := c.assign("Theirs", "user3")
	c.mustRun("advance", mine.ID)

	if got := c.list(); len(got) != 2 {
		t.Errorf("user1 sees %d items, want 2", len(got))
	}
	got := c.list("--status", "in-progress")
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Errorf("in-progress filter = %+v", got)
	}
	if got := c.list("--status", "all"); len(got) != 2 {
		t.Errorf("all filter = %d items, want 2", len(got))
	}
	if _, err := c.run("list", "--status", "blocked"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("bad filter: err = %v, want ErrInvalidInput", err)
	}

	c.login("user3", "pass123")
	got = c.list()
	if len(got) != 1 || got[0].ID != theirs.ID {
		t.Errorf("user3 sees %+v, want only %s", got, theirs.ID)
	}
	if _, err := c.run("show", mine.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("show invisible item: err = %v, want ErrNotFound", err)
	}

	out := c.mustRun("list")
	if !strings.Contains(out, "Theirs") || !strings.Contains(out, "worktrack start "+theirs.ID) {
		t.Errorf("list output = %q", out)
	}
}

func TestSetStatus(t *testing.T) {
	c := setupCLI(t)

	c.login("admin", "admin123")
	item := c.assign("Task", "user2")

	c.login("user2", "pass123")
	if _, err := c.run("set-status", item.ID, "completed"); !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("user2 set-status: err = %v, want ErrPermissionDenied", err)
	}

	c.login("admin", "admin123")
	if _, err := c.run("set-status", item.ID, "done"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("unknown status: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := c.run("set-status", "missing-id", "completed"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing item: err = %v, want ErrNotFound", err)
	}

	out := c.mustRun("set-status", item.ID, "completed")
	if !strings.Contains(out, "is now completed") {
		t.Errorf("set-status output = %q", out)
	}
	out = c.mustRun("set-status", item.ID, "pending")
	if !strings.Contains(out, "is now pending") {
		t.Errorf("revert output = %q", out)
	}

	out = c.mustRun("show", item.ID, "--json")
	var got ItemJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if got.Status != "pending" {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestList_Empty(t *testing.T) {
	c := setupCLI(t)
	c.login("admin", "admin123")

	out := c.mustRun("list", "--json")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("empty list JSON = %q, want []", out)
	}
	out = c.mustRun("list")
	if !strings.Contains(out, "No work items found") {
		t.Errorf("empty list output = %q", out)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{150, 20},
		{-5, 0},
	}
	for _, tt := range tests {
		got := bar(tt.percent, 20)
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Errorf("bar(%v) filled = %d, want %d", tt.percent, n, tt.filled)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != 20 {
			t.Errorf("bar(%v) width = %d, want 20", tt.percent, n)
		}
	}
}

func TestStartAndDone_RequireTheirSourceStatus(t *testing.T) {
	c := setupCLI(t)

	c.login("admin", "admin123")
	item := c.assign("Task", "user2")

	c.login("user2", "pass123")
	if _, err := c.run("done", item.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("done on pending item: err = %v, want ErrInvalidTransition", err)
	}
	if got := c.list(); got[0].Status != "pending" {
		t.Errorf("done moved pending item to %s", got[0].Status)
	}

	out := c.mustRun("start", item.ID)
	if !strings.Contains(out, "is now in-progress") {
		t.Errorf("start output = %q", out)
	}
	if _, err := c.run("start", item.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("start on in-progress item: err = %v, want ErrInvalidTransition", err)
	}
	if got := c.list(); got[0].Status != "in-progress" {
		t.Errorf("start moved in-progress item to %s", got[0].Status)
	}

	out = c.mustRun("list")
	if !strings.Contains(out, "worktrack done "+item.ID) {
		t.Errorf("list does not hint done for in-progress item:\n%s", out)
	}

	out = c.mustRun("done", item.ID)
	if !strings.Contains(out, "is now completed") {
		t.Errorf("done output = %q", out)
	}
	if _, err := c.run("done", item.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("done on completed item: err = %v, want ErrInvalidTransition", err)
	}
}

func TestItemJSON_KeepsStoredTimePrecision(t *testing.T) {
	c := setupCLI(t)

	c.login("admin", "admin123")
	item := c.assign("Task", "user2")

	database, err := db.Open(c.dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()
	stored, err := database.LoadItems()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d items, want 1", len(stored))
	}

	for name, tt := range map[string]struct {
		json string
		want time.Time
	}{
		"createdAt": {item.CreatedAt, stored[0].CreatedAt},
		"updatedAt": {item.UpdatedAt, stored[0].UpdatedAt},
	} {
		got, err := time.Parse(time.RFC3339Nano, tt.json)
		if err != nil {
			t.Fatalf("%s: parse %q: %v", name, tt.json, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s = %v, stored %v", name, got, tt.want)
		}
	}
}
