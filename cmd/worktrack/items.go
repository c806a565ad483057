package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/baiirun/worktrack/internal/model"
	"github.com/baiirun/worktrack/internal/tracker"
)

var (
	flagDescription string
	flagAssignee    string
	flagPriority    string
	flagStatus      string
)

var assignCmd = &cobra.Command{
	Use:   "assign <title>",
	Short: "Assign a new work item",
	Long: `Assign a new work item to a teammate. The item starts as pending.

Examples:
  worktrack assign "Fix bug" -d "Crash when saving" --to user2 --priority high`,
	Args: cobra.MinimumNArgs(1),
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		sess, err := requireLogin(tr)
		if err != nil {
			return err
		}

		item, err := tr.Assign(sess, model.AssignInput{
			Title:       strings.Join(args, " "),
			Description: flagDescription,
			AssignedTo:  flagAssignee,
			Priority:    model.Priority(flagPriority),
		})
		if err != nil {
			return err
		}

		if flagJSON {
			b, err := json.MarshalIndent(toItemJSON(item, actionsFor(tr, sess, item)), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", item.ID, item.AssignedTo)
		return nil
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the work items you can see",
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		sess, err := requireLogin(tr)
		if err != nil {
			return err
		}

		filter := model.Status(flagStatus)
		if flagStatus == "all" {
			filter = ""
		}
		items, err := tr.CurrentVisibleItems(sess, filter)
		if err != nil {
			return err
		}

		acts := make([]actions, len(items))
		for i, item := range items {
			acts[i] = actionsFor(tr, sess, item)
		}
		if flagJSON {
			return printItemsJSON(cmd.OutOrStdout(), items, acts)
		}
		printItems(cmd.OutOrStdout(), items, acts, time.Now())
		return nil
	}),
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show work item details",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		sess, err := requireLogin(tr)
		if err != nil {
			return err
		}
		item, err := findVisible(tr, sess, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			b, err := json.MarshalIndent(toItemJSON(item, actionsFor(tr, sess, item)), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		printItemDetail(cmd.OutOrStdout(), item)
		return nil
	}),
}

// findVisible looks id up among the items sess can see.
func findVisible(tr *tracker.Tracker, sess model.Session, id string) (model.WorkItem, error) {
	items, err := tr.CurrentVisibleItems(sess, "")
	if err != nil {
		return model.WorkItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return model.WorkItem{}, fmt.Errorf("%w: %s (use 'worktrack list' to see available items)", model.ErrNotFound, id)
}

var advanceCmd = &cobra.Command{
	Use:   "advance <id>",
	Short: "Move one of your items to its next status",
	Long: `Move one of your items one step along pending -> in-progress -> completed.
Completed items cannot be advanced.`,
	Args: cobra.ExactArgs(1),
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		return runStatusChange(cmd, tr, args[0], tracker.Advance())
	}),
}

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start one of your pending items",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		return runStatusChange(cmd, tr, args[0], tracker.AdvanceFrom(model.StatusPending))
	}),
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Complete one of your in-progress items",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		return runStatusChange(cmd, tr, args[0], tracker.AdvanceFrom(model.StatusInProgress))
	}),
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <id> <pending|in-progress|completed>",
	Short: "Set an item's status directly",
	Long: `Set an item's status to any value, bypassing the guided sequence.
Only available to roles allowed to update any item's status.`,
	Args: cobra.ExactArgs(2),
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		status, err := model.ParseStatus(args[1])
		if err != nil {
			return err
		}
		return runStatusChange(cmd, tr, args[0], tracker.SetTo(status))
	}),
}

func runStatusChange(cmd *cobra.Command, tr *tracker.Tracker, id string, change tracker.StatusChange) error {
	sess, err := requireLogin(tr)
	if err != nil {
		return err
	}
	item, err := tr.UpdateStatus(sess, id, change)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", statusIcon(item.Status), item.ID, item.Status)
	return nil
}

func actionsFor(tr *tracker.Tracker, sess model.Session, item model.WorkItem) actions {
	return actions{
		advance: tr.CanAdvance(sess, item),
		set:     tr.CanSetStatus(sess, item),
	}
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show completion statistics",
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		sess, err := requireLogin(tr)
		if err != nil {
			return err
		}
		sum, err := tr.Summarize(sess)
		if err != nil {
			return err
		}
		if flagJSON {
			return printReportJSON(cmd.OutOrStdout(), sum)
		}
		printReport(cmd.OutOrStdout(), sum)
		return nil
	}),
}

func init() {
	assignCmd.Flags().StringVarP(&flagDescription, "description", "d", "", "Description (required)")
	assignCmd.Flags().StringVarP(&flagAssignee, "to", "t", "", "Assignee (required; see 'worktrack users')")
	assignCmd.Flags().StringVar(&flagPriority, "priority", "", "Priority: low, medium, high (default medium)")
	assignCmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")

	listCmd.Flags().StringVarP(&flagStatus, "status", "s", "", "Filter by status: all, pending, in-progress, completed")
	listCmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")

	showCmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	reportCmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(doneCmd)
}
