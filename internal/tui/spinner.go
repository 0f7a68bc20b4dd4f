package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/secacademy/academy-admin/internal/api"
)

// Spinner represents a loading spinner
type Spinner struct {
	frames []string
	frame  int
}

// NewSpinner creates a new spinner
func NewSpinner() *Spinner {
	return &Spinner{
		frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
		frame:  0,
	}
}

// Next advances the spinner to the next frame
func (s *Spinner) Next() {
	s.frame = (s.frame + 1) % len(s.frames)
}

// View returns the current spinner frame
func (s *Spinner) View() string {
	return s.frames[s.frame]
}

// LoadingIndicator renders a spinner next to a message
type LoadingIndicator struct {
	spinner *Spinner
	message string
}

// NewLoadingIndicator creates a new loading indicator
func NewLoadingIndicator(message string) *LoadingIndicator {
	return &LoadingIndicator{
		spinner: NewSpinner(),
		message: message,
	}
}

// SetMessage updates the loading message
func (l *LoadingIndicator) SetMessage(message string) {
	l.message = message
}

// Tick advances the spinner animation
func (l *LoadingIndicator) Tick() {
	l.spinner.Next()
}

// View renders the loading indicator
func (l *LoadingIndicator) View() string {
	spinnerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212"))

	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	return fmt.Sprintf("%s %s",
		spinnerStyle.Render(l.spinner.View()),
		messageStyle.Render(l.message))
}

// errorBanner renders a failed fetch with a retry hint instead of a spinner
func errorBanner(err error) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	text := fmt.Sprintf("✗ %v", err)
	tip := "r: retry"
	if api.IsKind(err, api.KindUnauthenticated) {
		tip = "session rejected, run `academy-admin login` • r: retry"
	}
	return style.Render(text) + "  " + hint.Render("["+tip+"]")
}
