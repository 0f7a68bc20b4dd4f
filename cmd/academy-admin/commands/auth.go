package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator and store the session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			if username == "" {
				fmt.Fprint(out, "Username: ")
				line, err := in.ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("failed to read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Fprint(out, "Password: ")
				p, err := readPassword(cmd, in)
				fmt.Fprintln(out)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = p
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			res, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}
			if err := a.session.Set(res.Token, res.Admin); err != nil {
				return fmt.Errorf("failed to store session: %w", err)
			}

			fmt.Fprintf(out, "Logged in as %s\n", username)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Administrator username")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password (prompted when omitted)")
	return cmd
}

// readPassword reads without echo from a terminal, or a plain line otherwise
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.session.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

// NewWhoamiCommand creates the whoami command
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in administrator",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			op, err := s.Operator()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Username: %s\n", op.Username)
			if op.Role != "" {
				fmt.Fprintf(out, "Role:     %s\n", op.Role)
			}
			fmt.Fprintf(out, "API:      %s\n", a.cfg.APIURL)
			return nil
		}),
	}
}
