package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/secacademy/academy-admin/internal/listing"
	"github.com/secacademy/academy-admin/internal/mutation"
	"github.com/secacademy/academy-admin/pkg/models"
)

// Message types for async operations
type (
	// ListLoadedMsg carries the result of a list fetch
	ListLoadedMsg[T any] struct {
		Result listing.Result[T]
	}

	// UserLoadedMsg carries the result of a user detail fetch
	UserLoadedMsg struct {
		Result listing.DetailResult[int64, models.UserDetail]
	}

	// DashboardLoadedMsg carries the result of a dashboard fetch
	DashboardLoadedMsg struct {
		Result listing.DetailResult[struct{}, models.DashboardStats]
	}

	// PointsAppliedMsg reports the backend's verdict on a points adjustment
	PointsAppliedMsg struct {
		Outcome mutation.Outcome[int64]
	}

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time
)

// Commands for async operations

// fetchListCmd runs a list fetch off the event loop
func fetchListCmd[T any](ctx context.Context, p *listing.Pending[T]) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return ListLoadedMsg[T]{Result: p.Do(ctx)}
	}
}

// fetchUserCmd runs a user detail fetch
func fetchUserCmd(ctx context.Context, p *listing.DetailPending[int64, models.UserDetail]) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return UserLoadedMsg{Result: p.Do(ctx)}
	}
}

// fetchDashboardCmd runs a dashboard fetch
func fetchDashboardCmd(ctx context.Context, p *listing.DetailPending[struct{}, models.DashboardStats]) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return DashboardLoadedMsg{Result: p.Do(ctx)}
	}
}

// applyPointsCmd sends a points adjustment
func applyPointsCmd(ctx context.Context, p *mutation.Pending[int64, models.PointsAdjustment]) tea.Cmd {
	return func() tea.Msg {
		return PointsAppliedMsg{Outcome: p.Do(ctx)}
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
