// Package report derives summary statistics from a work item collection.
package report

import (
	"math"
	"sort"

	"github.com/baiirun/worktrack/internal/model"
)

// Share is a count and its percentage of the total.
type Share struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// AssigneeStats breaks down one assignee's items by status.
type AssigneeStats struct {
	Assignee       string `json:"assignee"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	InProgress     int    `json:"inProgress"`
	Pending        int    `json:"pending"`
	CompletionRate int    `json:"completionRate"`
}

// Summary is recomputed on every request and never stored.
type Summary struct {
	TotalTasks      int                      `json:"totalTasks"`
	CompletedTasks  int                      `json:"completedTasks"`
	InProgressTasks int                      `json:"inProgressTasks"`
	PendingTasks    int                      `json:"pendingTasks"`
	CompletionRate  int                      `json:"completionRate"` // whole percent
	ByStatus        map[model.Status]Share   `json:"byStatus"`
	ByPriority      map[model.Priority]Share `json:"byPriority"`
	ByAssignee      []AssigneeStats          `json:"byAssignee"` // sorted by assignee
}

// Summarize computes a Summary over items. Every status and priority has an
// entry, zero-valued when absent.
func Summarize(items []model.WorkItem) Summary {
	sum := Summary{
		TotalTasks: len(items),
		ByStatus:   make(map[model.Status]Share, len(model.Statuses)),
		ByPriority: make(map[model.Priority]Share, len(model.Priorities)),
	}

	statusCounts := make(map[model.Status]int)
	priorityCounts := make(map[model.Priority]int)
	assignees := make(map[string]*AssigneeStats)

	for _, item := range items {
		statusCounts[item.Status]++
		priorityCounts[item.Priority]++

		stats, ok := assignees[item.AssignedTo]
		if !ok {
			stats = &AssigneeStats{Assignee: item.AssignedTo}
			assignees[item.AssignedTo] = stats
		}
		stats.Total++
		switch item.Status {
		case model.StatusCompleted:
			stats.Completed++
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusPending:
			stats.Pending++
		}
	}

	sum.CompletedTasks = statusCounts[model.StatusCompleted]
	sum.InProgressTasks = statusCounts[model.StatusInProgress]
	sum.PendingTasks = statusCounts[model.StatusPending]
	sum.CompletionRate = rate(sum.CompletedTasks, sum.TotalTasks)

	for _, s := range model.Statuses {
		sum.ByStatus[s] = Share{Count: statusCounts[s], Percent: percent(statusCounts[s], sum.TotalTasks)}
	}
	for _, p := range model.Priorities {
		sum.ByPriority[p] = Share{Count: priorityCounts[p], Percent: percent(priorityCounts[p], sum.TotalTasks)}
	}

	sum.ByAssignee = make([]AssigneeStats, 0, len(assignees))
	for _, stats := range assignees {
		stats.CompletionRate = rate(stats.Completed, stats.Total)
		sum.ByAssignee = append(sum.ByAssignee, *stats)
	}
	sort.Slice(sum.ByAssignee, func(i, j int) bool {
		return sum.ByAssignee[i].Assignee < sum.ByAssignee[j].Assignee
	})

	return sum
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// rate is percent rounded half away from zero to a whole number.
func rate(n, total int) int {
	return int(math.Round(percent(n, total)))
}
