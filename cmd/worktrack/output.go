package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/baiirun/worktrack/internal/model"
	"github.com/baiirun/worktrack/internal/report"
)

// ItemJSON is the --json shape of a work item.
type ItemJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	AssignedBy  string `json:"assignedBy"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	CanAdvance  bool   `json:"canAdvance"`
	CanSet      bool   `json:"canSetStatus"`
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusPending:
		return "○"
	case model.StatusInProgress:
		return "◐"
	case model.StatusCompleted:
		return "●"
	default:
		return "?"
	}
}

// actions is what the viewer may do to one item.
type actions struct {
	advance bool
	set     bool
}

func toItemJSON(item model.WorkItem, act actions) ItemJSON {
	return ItemJSON{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		AssignedTo:  item.AssignedTo,
		AssignedBy:  item.AssignedBy,
		Status:      string(item.Status),
		Priority:    string(item.Priority),
		CreatedAt:   item.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339Nano),
		CanAdvance:  act.advance,
		CanSet:      act.set,
	}
}

func printItemsJSON(w io.Writer, items []model.WorkItem, acts []actions) error {
	out := make([]ItemJSON, 0, len(items))
	for i, item := range items {
		out = append(out, toItemJSON(item, acts[i]))
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func printItems(w io.Writer, items []model.WorkItem, acts []actions, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No work items found")
		return
	}
	for i, item := range items {
		printItemLine(w, item, acts[i], now)
	}
}

func printItemLine(w io.Writer, item model.WorkItem, act actions, now time.Time) {
	fmt.Fprintf(w, "%s %s  %s [%s]\n", statusIcon(item.Status), item.ID, item.Title, item.Priority)
	fmt.Fprintf(w, "    %s · to %s · by %s · updated %s\n",
		item.Status, item.AssignedTo, item.AssignedBy, humanize.RelTime(item.UpdatedAt, now, "ago", "from now"))

	var hints []string
	if act.advance {
		switch item.Status {
		case model.StatusPending:
			hints = append(hints, "worktrack start "+item.ID)
		case model.StatusInProgress:
			hints = append(hints, "worktrack done "+item.ID)
		}
	}
	if act.set {
		hints = append(hints, "worktrack set-status "+item.ID+" <status>")
	}
	if len(hints) > 0 {
		fmt.Fprintf(w, "    → %s\n", strings.Join(hints, " | "))
	}
}

func printItemDetail(w io.Writer, item model.WorkItem) {
	fmt.Fprintf(w, "%s %s\n", statusIcon(item.Status), item.Title)
	fmt.Fprintf(w, "  ID:          %s\n", item.ID)
	fmt.Fprintf(w, "  Status:      %s\n", item.Status)
	fmt.Fprintf(w, "  Priority:    %s\n", item.Priority)
	fmt.Fprintf(w, "  Assigned to: %s\n", item.AssignedTo)
	fmt.Fprintf(w, "  Assigned by: %s\n", item.AssignedBy)
	fmt.Fprintf(w, "  Created:     %s\n", item.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Updated:     %s\n", item.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if item.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", item.Description)
	}
}

func printReportJSON(w io.Writer, sum report.Summary) error {
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func bar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func printReport(w io.Writer, sum report.Summary) {
	fmt.Fprintln(w, "Work report")
	fmt.Fprintln(w, "===========")
	fmt.Fprintf(w, "Total: %s   Completed: %s   In progress: %s   Completion rate: %d%%\n\n",
		humanize.Comma(int64(sum.TotalTasks)),
		humanize.Comma(int64(sum.CompletedTasks)),
		humanize.Comma(int64(sum.InProgressTasks)),
		sum.CompletionRate)

	fmt.Fprintln(w, "By status:")
	for _, s := range model.Statuses {
		share := sum.ByStatus[s]
		fmt.Fprintf(w, "  %-12s %s %4d (%.0f%%)\n", s, bar(share.Percent, 20), share.Count, share.Percent)
	}

	fmt.Fprintln(w, "\nBy priority:")
	for i := len(model.Priorities) - 1; i >= 0; i-- {
		p := model.Priorities[i]
		share := sum.ByPriority[p]
		fmt.Fprintf(w, "  %-12s %s %4d (%.0f%%)\n", p, bar(share.Percent, 20), share.Count, share.Percent)
	}

	if len(sum.ByAssignee) == 0 {
		return
	}
	fmt.Fprintln(w, "\nBy assignee:")
	fmt.Fprintf(w, "  %-16s %5s %9s %11s %7s %5s\n", "ASSIGNEE", "TOTAL", "COMPLETED", "IN PROGRESS", "PENDING", "RATE")
	for _, a := range sum.ByAssignee {
		fmt.Fprintf(w, "  %-16s %5d %9d %11d %7d %4d%%\n", a.Assignee, a.Total, a.Completed, a.InProgress, a.Pending, a.CompletionRate)
	}
}
