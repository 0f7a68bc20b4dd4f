package commands

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/secacademy/academy-admin/internal/api"
	"github.com/secacademy/academy-admin/internal/config"
	"github.com/secacademy/academy-admin/internal/session"
	"github.com/spf13/cobra"
)

const debugLogFile = "debug.log"

// app is everything a command needs to talk to the backend
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	session *session.Accessor
	client  *api.Client
	closers []io.Closer
}

// newApp loads configuration and opens the session store and API client
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	a.logger = logger
	if logFile != nil {
		a.closers = append(a.closers, logFile)
	}

	var store session.Store
	if ephemeral {
		store = session.NewMemoryStore()
	} else {
		duck, err := session.OpenDuckStore(cfg.StatePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		store = duck
		a.closers = append(a.closers, duck)
	}
	a.session = session.NewAccessor(store, logger)

	a.client, err = api.NewClient(cfg.APIURL, a.session,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Printf("using %s (state %s)", cfg.APIURL, cfg.StatePath)
	return a, nil
}

// newLogger routes the std logger to a file. The TUI owns the terminal, so
// nothing is ever logged to stdout or stderr.
func newLogger(cfg *config.Config) (*log.Logger, *os.File, error) {
	path := cfg.LogFile
	if path == "" && cfg.Debug {
		path = debugLogFile
	}
	if path == "" {
		return log.New(io.Discard, "", 0), nil, nil
	}

	f, err := tea.LogToFile(path, "academy-admin")
	if err != nil {
		return nil, nil, err
	}
	return log.Default(), f, nil
}

// requireSession fails early when no operator is logged in
func (a *app) requireSession() (*session.Session, error) {
	s, ok := a.session.Get()
	if !ok {
		return nil, fmt.Errorf("not logged in, run `academy-admin login` first")
	}
	return s, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Printf("close: %v", err)
		}
	}
	a.closers = nil
}

// withApp wraps a command body with app setup and teardown
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
