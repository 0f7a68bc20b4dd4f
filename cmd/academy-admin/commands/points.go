package commands

import (
	"fmt"
	"strconv"

	"github.com/secacademy/academy-admin/internal/listing"
	"github.com/secacademy/academy-admin/internal/mutation"
	"github.com/secacademy/academy-admin/pkg/models"
	"github.com/spf13/cobra"
)

// NewPointsCommand creates the points command
func NewPointsCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "points <user-id> <add|subtract> <points>",
		Short: "Add or subtract points for a user",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			n, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return models.ErrInvalidPoints
			}
			adj := models.PointsAdjustment{Points: n, Reason: reason, Action: args[1]}
			if err := adj.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			detail := listing.NewDetail(a.client.User)
			if err := detail.Run(ctx, detail.Select(id)); err != nil {
				return requestError("fetch user", err)
			}
			before, _ := detail.Record()

			points := mutation.New[int64, models.PointsAdjustment, models.User](a.client.AdjustPoints, nil, detail)
			f, err := points.Apply(ctx, id, adj)
			if err != nil {
				return requestError("adjust points", err)
			}
			if err := points.Run(ctx, f); err != nil {
				return requestError("reload user", err)
			}
			after, _ := detail.Record()

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d points\n",
				after.User.DisplayName(), before.User.Points, after.User.Points)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "Admin adjustment", "Reason recorded in the points history")
	return cmd
}
