package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/secacademy/academy-admin/internal/api"
	"github.com/secacademy/academy-admin/internal/listing"
	"github.com/secacademy/academy-admin/pkg/models"
	"github.com/spf13/cobra"
)

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform statistics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			stats, err := a.client.Dashboard(cmd.Context())
			if err != nil {
				return requestError("fetch dashboard", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Users\t%d total\t%d new today\t%d VIP\n", stats.Users.Total, stats.Users.NewToday, stats.Users.VIP)
			fmt.Fprintf(w, "Lessons\t%d total\t%d completed\t\n", stats.Lessons.Total, stats.Lessons.Completed)
			fmt.Fprintf(w, "Points\t%d total\t%d transactions\t\n", stats.Points.Total, stats.Points.Transactions)
			fmt.Fprintf(w, "News\t%d total\t%d today\t\n", stats.News.Total, stats.News.Today)
			fmt.Fprintf(w, "Shop\t%d purchases\t$%.2f revenue\t\n", stats.Shop.Purchases, stats.Shop.Revenue)
			return w.Flush()
		}),
	}
}

// NewUsersCommand creates the users command
func NewUsersCommand() *cobra.Command {
	var page int
	var search string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			users := listing.NewController(a.client.Users, a.cfg.PageLimit)
			if err := users.Run(cmd.Context(), users.Seek(page, search)); err != nil {
				return requestError("fetch users", err)
			}

			out := cmd.OutOrStdout()
			if len(users.Rows()) == 0 {
				fmt.Fprintln(out, "No users found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUSERNAME\tPOINTS\tLEVEL\tVIP\tREGISTERED")
			for _, u := range users.Rows() {
				vip := ""
				if u.IsVIP {
					vip = "yes"
				}
				fmt.Fprintf(w, "%d\t%s\t@%s\t%d\t%s\t%s\t%s\n",
					u.UserID, u.DisplayName(), u.Username, u.Points, u.Level, vip, u.RegistrationDate)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			printRange(out, users.State())
			return nil
		}),
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or username")
	return cmd
}

// NewUserCommand creates the user command
func NewUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Show one user with points history, lessons and purchases",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			d, err := a.client.User(cmd.Context(), id)
			if err != nil {
				return requestError("fetch user", err)
			}

			printUserDetail(cmd.OutOrStdout(), d)
			return nil
		}),
	}
}

// NewLessonsCommand creates the lessons command
func NewLessonsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List lessons with enrollment counts",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			p, err := a.client.Lessons(cmd.Context(), listing.Query{Page: 1, Limit: a.cfg.PageLimit})
			if err != nil {
				return requestError("fetch lessons", err)
			}

			out := cmd.OutOrStdout()
			if len(p.Rows) == 0 {
				fmt.Fprintln(out, "No lessons found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tLEVEL\tREWARD\tPREMIUM\tENROLLED\tCOMPLETED")
			for _, l := range p.Rows {
				premium := ""
				if l.IsPremium {
					premium = "yes"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%d\t%d\n",
					l.ID, l.TitleEN, l.Level, l.PointsReward, premium, l.EnrolledUsers, l.CompletedUsers)
			}
			return w.Flush()
		}),
	}
}

// NewNewsCommand creates the news command
func NewNewsCommand() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "news",
		Short: "List security news",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			news := listing.NewController(a.client.News, a.cfg.PageLimit)
			if err := news.Run(cmd.Context(), news.Seek(page, "")); err != nil {
				return requestError("fetch news", err)
			}

			out := cmd.OutOrStdout()
			if len(news.Rows()) == 0 {
				fmt.Fprintln(out, "No news found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSEVERITY\tCATEGORY\tTITLE\tPUBLISHED")
			for _, n := range news.Rows() {
				title := n.TitleEN
				if n.IsFeatured {
					title = "★ " + title
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", n.ID, n.Severity, n.Category, title, n.PublishedDate)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			printRange(out, news.State())
			return nil
		}),
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func printUserDetail(out io.Writer, d models.UserDetail) {
	u := d.User
	fmt.Fprintf(out, "%s (@%s)\n", u.DisplayName(), u.Username)
	fmt.Fprintf(out, "  ID: %d\n", u.UserID)
	fmt.Fprintf(out, "  Points: %d\n", u.Points)
	fmt.Fprintf(out, "  Level: %s\n", u.Level)
	fmt.Fprintf(out, "  Language: %s\n", u.Language)
	fmt.Fprintf(out, "  VIP: %t\n", u.IsVIP)
	fmt.Fprintf(out, "  Lessons completed: %d\n", u.TotalLessonsCompleted)
	fmt.Fprintf(out, "  Registered: %s\n", u.RegistrationDate)

	fmt.Fprintf(out, "\nPoints history (%d):\n", len(d.PointsHistory))
	for _, p := range d.PointsHistory {
		sign := "+"
		if p.TransactionType == "spent" {
			sign = "-"
		}
		fmt.Fprintf(out, "  %s  %s%d  %s\n", p.Date, sign, p.Points, p.Reason)
	}

	fmt.Fprintf(out, "\nLessons progress (%d):\n", len(d.LessonsProgress))
	for _, l := range d.LessonsProgress {
		state := "in progress"
		if l.Completed {
			state = fmt.Sprintf("completed %s (quiz %.0f%%)", l.CompletionDate, l.QuizScore)
		}
		fmt.Fprintf(out, "  %s: %s\n", l.TitleEN, state)
	}

	fmt.Fprintf(out, "\nPurchases (%d):\n", len(d.Purchases))
	for _, p := range d.Purchases {
		fmt.Fprintf(out, "  %s  %s  %d pts / $%.2f  %s\n", p.PurchaseDate, p.NameEN, p.AmountPoints, p.AmountUSD, p.Status)
	}
}

func printRange(out io.Writer, st listing.State) {
	from, to := st.Range()
	fmt.Fprintf(out, "\nShowing %d to %d of %d (page %d/%d)\n", from, to, st.Total, st.Page, max(st.Pages, 1))
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

// requestError wraps an API failure, pointing at login when the session was rejected
func requestError(action string, err error) error {
	if api.IsKind(err, api.KindUnauthenticated) {
		return fmt.Errorf("failed to %s: %w (run `academy-admin login`)", action, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
