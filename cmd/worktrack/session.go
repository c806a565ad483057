package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baiirun/worktrack/internal/policy"
	"github.com/baiirun/worktrack/internal/tracker"
)

var flagPassword string

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in as a user",
	Long: `Log in as a user. The password is read from --password, or from the
first line of stdin when the flag is omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		password := flagPassword
		if password == "" {
			var err error
			password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
		}

		sess, err := tr.Login(args[0], password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.Username, sess.Role)
		return nil
	}),
}

func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out the current user",
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		sess, ok := tr.CurrentSession()
		tr.Logout()
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", sess.Username)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		}
		return nil
	}),
}

// SessionJSON is the --json shape of whoami.
type SessionJSON struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current user and what they may do",
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		sess, err := requireLogin(tr)
		if err != nil {
			return err
		}

		perms := []string{}
		for _, a := range policy.Granted(sess.Role) {
			perms = append(perms, string(a))
		}

		out := cmd.OutOrStdout()
		if flagJSON {
			b, err := json.MarshalIndent(SessionJSON{Username: sess.Username, Role: string(sess.Role), Permissions: perms}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "%s (%s)\n", sess.Username, sess.Role)
		fmt.Fprintf(out, "Permissions: %s\n", strings.Join(perms, ", "))
		return nil
	}),
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List people work can be assigned to",
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		for _, name := range tr.Assignees() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "password (read from stdin if omitted)")
	whoamiCmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")
}
