package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/secacademy/academy-admin/internal/tui"
	"github.com/spf13/cobra"
)

var ephemeral bool

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "academy-admin",
		Short: "Administer the security academy platform from the terminal",
		Long: `academy-admin is a TUI for the security academy admin API.
It browses users, lessons and news, shows dashboard statistics and
adjusts user points. Run "academy-admin login" first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withApp(runTUI),
	}

	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "", "Admin API base URL (env ACADEMY_API_URL)")
	flags.String("state-path", "", "Session database file (env ACADEMY_STATE_PATH)")
	flags.Duration("timeout", 0, "Per-request timeout (env ACADEMY_TIMEOUT)")
	flags.Int("page-limit", 0, "Rows per page (env ACADEMY_PAGE_LIMIT)")
	flags.String("log-file", "", "Write request logs to this file (env ACADEMY_LOG_FILE)")
	flags.Bool("debug", false, "Log to "+debugLogFile+" when no log file is set")
	flags.BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory only")

	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewWhoamiCommand())
	rootCmd.AddCommand(NewDashboardCommand())
	rootCmd.AddCommand(NewUsersCommand())
	rootCmd.AddCommand(NewUserCommand())
	rootCmd.AddCommand(NewPointsCommand())
	rootCmd.AddCommand(NewLessonsCommand())
	rootCmd.AddCommand(NewNewsCommand())
	rootCmd.AddCommand(NewExportCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string, a *app) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	operator, err := s.Operator()
	if err != nil {
		a.logger.Printf("session: %v", err)
	}

	if err := tui.Run(cmd.Context(), a.client, operator, a.cfg.PageLimit); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
