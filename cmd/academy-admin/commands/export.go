package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/secacademy/academy-admin/internal/db"
	"github.com/secacademy/academy-admin/internal/export"
	"github.com/secacademy/academy-admin/internal/listing"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <users|lessons|news> <file>",
		Short: "Export a complete list to CSV, Parquet or JSON",
		Long: `Export walks every page of a list and writes the rows to a file.
The format follows the extension: .csv, .parquet or .json.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"users", "lessons", "news"},
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			entity, path := args[0], args[1]
			if _, err := export.FormatFromPath(path); err != nil {
				return err
			}

			database, err := db.Scratch()
			if err != nil {
				return fmt.Errorf("failed to open DuckDB: %w", err)
			}

			ctx := cmd.Context()
			progress := cmd.ErrOrStderr()
			limit := a.cfg.PageLimit

			var n int
			switch entity {
			case "users":
				n, err = exportList(ctx, listing.NewController(a.client.Users, limit), database, path, progress)
			case "lessons":
				n, err = exportList(ctx, listing.NewController(a.client.Lessons, limit), database, path, progress)
			case "news":
				n, err = exportList(ctx, listing.NewController(a.client.News, limit), database, path, progress)
			default:
				return fmt.Errorf("unknown list %q (want users, lessons or news)", entity)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", n, entity, path)
			return nil
		}),
	}
}

func exportList[T any](ctx context.Context, c *listing.Controller[T], database *sql.DB, path string, progress io.Writer) (int, error) {
	rows, err := export.Collect(ctx, c, func(st listing.State) {
		_, to := st.Range()
		fmt.Fprintf(progress, "\rFetched %d of %d (page %d/%d)", to, st.Total, st.Page, max(st.Pages, 1))
	})
	fmt.Fprintln(progress)
	if err != nil {
		return 0, requestError("fetch rows", err)
	}

	if err := export.Write(ctx, database, rows, path); err != nil {
		return 0, err
	}
	return len(rows), nil
}
