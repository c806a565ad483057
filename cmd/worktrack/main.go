package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/baiirun/worktrack/internal/config"
	"github.com/baiirun/worktrack/internal/db"
	"github.com/baiirun/worktrack/internal/identity"
	"github.com/baiirun/worktrack/internal/logging"
	"github.com/baiirun/worktrack/internal/model"
	"github.com/baiirun/worktrack/internal/tracker"
)

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "worktrack",
	Short: "Assign work and track its status",
	Long: `A small work-assignment tracker. Log in, assign tasks to teammates,
move them from pending to completed, and view completion reports.

Demo accounts: admin/admin123, user1/pass123, user2/pass123, user3/pass123.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app holds everything a command needs for one invocation.
type app struct {
	db      *db.DB
	tracker *tracker.Tracker
	log     *zap.Logger
}

func openApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := database.Init(); err != nil {
		_ = database.Close()
		return nil, err
	}

	dir, err := identity.NewDirectory(identity.DefaultAccounts, bcrypt.DefaultCost, identity.WithAssignees(cfg.Assignees...))
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	signer, err := identity.NewSigner(cfg.SessionSecret)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	tr := tracker.New(dir, signer, database, logger)
	if err := tr.Restore(); err != nil {
		_ = database.Close()
		return nil, err
	}
	logger.Debug("opened database", zap.String("path", cfg.DBPath))
	return &app{db: database, tracker: tr, log: logger}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.db.Close()
}

// withTracker opens the app for the duration of one command.
func withTracker(run func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a.tracker)
	}
}

// requireLogin returns the current session or a hint to log in.
func requireLogin(tr *tracker.Tracker) (model.Session, error) {
	sess, ok := tr.CurrentSession()
	if !ok {
		return model.Session{}, fmt.Errorf("%w (use 'worktrack login <username>')", model.ErrNoSession)
	}
	return sess, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default is $HOME/.worktrack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default is $HOME/.worktrack/worktrack.db)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(setStatusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(boardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
