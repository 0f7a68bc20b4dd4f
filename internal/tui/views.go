package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/secacademy/academy-admin/internal/listing"
	"github.com/secacademy/academy-admin/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("63"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Underline(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(22)
)

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	return fmt.Sprintf("%s\n%s\n%s", m.renderHeader(), m.renderBody(), m.renderFooter())
}

func (m model) renderHeader() string {
	title := titleStyle.Render(" Academy Admin ")

	tabs := make([]string, 0, screenCount)
	for s := dashboardScreen; s < screenCount; s++ {
		label := fmt.Sprintf("%d %s", int(s)+1, s)
		if s == m.screen {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	header := title + "  " + strings.Join(tabs, "  ")
	if m.operator.Username != "" {
		header += "  " + mutedStyle.Render("@"+m.operator.Username)
	}
	return header + "\n"
}

func (m model) renderBody() string {
	if m.currentMode == detailMode || m.currentMode == pointsMode {
		body := m.detailView.View()
		if m.currentMode == pointsMode {
			body += "\n" + m.renderPointsForm()
		}
		return body
	}

	switch m.screen {
	case dashboardScreen:
		return m.renderDashboard()
	case usersScreen:
		return m.renderUsers()
	case lessonsScreen:
		return m.renderLessons()
	case newsScreen:
		return m.renderNews()
	}
	return ""
}

func (m model) renderFooter() string {
	var s strings.Builder

	if line := m.statusLine(); line != "" {
		s.WriteString(line + "\n")
	}
	s.WriteString(m.help.View(helpKeys{bindings: m.footerBindings()}))
	return s.String()
}

// statusLine shows, in order of precedence, an error, a spinner or the last status message
func (m model) statusLine() string {
	var err error
	var loading bool

	switch {
	case m.currentMode == detailMode || m.currentMode == pointsMode:
		err, loading = m.userDetail.Err(), m.userDetail.Loading()
	case m.screen == dashboardScreen:
		err, loading = m.dashboard.Err(), m.dashboard.Loading()
	case m.screen == usersScreen:
		err, loading = m.users.Err(), m.users.Loading()
	case m.screen == lessonsScreen:
		err, loading = m.lessons.Err(), m.lessons.Loading()
	case m.screen == newsScreen:
		err, loading = m.news.Err(), m.news.Loading()
	}

	switch {
	case err != nil && !loading:
		return errorBanner(err)
	case loading:
		return m.loading.View()
	case m.status != "":
		return statusStyle.Render("✓ " + m.status)
	}
	return ""
}

func (m model) footerBindings() []key.Binding {
	k := m.keys
	switch m.currentMode {
	case searchMode:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "keep")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		}
	case pointsMode:
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	case detailMode:
		return []key.Binding{k.Up, k.Down, k.AddPoints, k.SubPoints, k.Refresh, k.Back, k.Quit}
	}

	switch m.screen {
	case usersScreen:
		return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Search, k.Open, k.Refresh, k.NextTab, k.Quit}
	case dashboardScreen:
		return []key.Binding{k.Refresh, k.NextTab, k.Quit}
	}
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Refresh, k.NextTab, k.Quit}
}

func (m model) renderDashboard() string {
	stats, ok := m.dashboard.Record()
	if !ok {
		return emptyStyle.Render("No statistics loaded yet")
	}

	card := func(title string, lines ...string) string {
		return cardStyle.Render(headingStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Users",
			fmt.Sprintf("Total:     %d", stats.Users.Total),
			fmt.Sprintf("New today: %d", stats.Users.NewToday),
			fmt.Sprintf("VIP:       %d", stats.Users.VIP)),
		card("Lessons",
			fmt.Sprintf("Total:     %d", stats.Lessons.Total),
			fmt.Sprintf("Completed: %d", stats.Lessons.Completed)),
		card("Points",
			fmt.Sprintf("Total:        %d", stats.Points.Total),
			fmt.Sprintf("Transactions: %d", stats.Points.Transactions)),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		card("News",
			fmt.Sprintf("Total: %d", stats.News.Total),
			fmt.Sprintf("Today: %d", stats.News.Today)),
		card("Shop",
			fmt.Sprintf("Purchases: %d", stats.Shop.Purchases),
			fmt.Sprintf("Revenue:   $%.2f", stats.Shop.Revenue)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func (m model) renderUsers() string {
	var s strings.Builder

	if m.currentMode == searchMode || m.search.Value() != "" {
		s.WriteString(m.search.View() + "\n\n")
	}

	rows := m.users.Rows()
	if len(rows) == 0 {
		s.WriteString(emptyList(m.users.Loaded(), "No users found"))
		return s.String()
	}

	s.WriteString(headingStyle.Render(fmt.Sprintf("  %-10s %-24s %-18s %8s  %-12s %s",
		"ID", "Name", "Username", "Points", "Level", "Registered")) + "\n")

	for i, u := range rows {
		vip := ""
		if u.IsVIP {
			vip = " ★ VIP"
		}
		line := fmt.Sprintf("%-10d %-24s %-18s %8d  %-12s %s%s",
			u.UserID,
			truncate(u.DisplayName(), 24),
			truncate("@"+u.Username, 18),
			u.Points,
			levelLabel(u.Level),
			formatDate(u.RegistrationDate),
			vip)
		s.WriteString(m.renderRow(usersScreen, i, line) + "\n")
	}

	s.WriteString("\n" + pagination(m.users.State()))
	return s.String()
}

func (m model) renderLessons() string {
	var s strings.Builder

	rows := m.lessons.Rows()
	if len(rows) == 0 {
		return emptyList(m.lessons.Loaded(), "No lessons found")
	}

	s.WriteString(headingStyle.Render(fmt.Sprintf("  %-5s %-32s %-13s %6s %8s %9s  %s",
		"ID", "Title", "Level", "Reward", "Enrolled", "Completed", "Category")) + "\n")

	for i, l := range rows {
		premium := ""
		if l.IsPremium {
			premium = " 💎"
		}
		line := fmt.Sprintf("%-5d %-32s %-13s %6d %8d %9d  %s%s",
			l.ID,
			truncate(l.TitleEN, 32),
			levelLabel(l.Level),
			l.PointsReward,
			l.EnrolledUsers,
			l.CompletedUsers,
			l.Category,
			premium)
		s.WriteString(m.renderRow(lessonsScreen, i, line) + "\n")
	}

	s.WriteString("\n" + pagination(m.lessons.State()))
	return s.String()
}

func (m model) renderNews() string {
	var s strings.Builder

	rows := m.news.Rows()
	if len(rows) == 0 {
		return emptyList(m.news.Loaded(), "No news found")
	}

	s.WriteString(headingStyle.Render(fmt.Sprintf("  %-5s %-10s %-14s %-40s %s",
		"ID", "Severity", "Category", "Title", "Published")) + "\n")

	for i, n := range rows {
		featured := ""
		if n.IsFeatured {
			featured = " ★"
		}
		line := fmt.Sprintf("%-5d %s %-14s %-40s %s%s",
			n.ID,
			severityBadge(n.Severity),
			categoryLabel(n.Category),
			truncate(n.TitleEN, 40),
			formatDate(n.PublishedDate),
			featured)
		s.WriteString(m.renderRow(newsScreen, i, line) + "\n")
	}

	s.WriteString("\n" + pagination(m.news.State()))
	return s.String()
}

func (m model) renderRow(s screen, i int, line string) string {
	if i == m.cursors[s] {
		return selectedStyle.Render("> " + line)
	}
	return rowStyle.Render("  " + line)
}

// refreshDetailView rebuilds the detail pane from the selected user record
func (m *model) refreshDetailView() {
	if !m.ready {
		return
	}
	m.detailView.SetContent(m.renderUserDetail())
}

func (m model) renderUserDetail() string {
	d, ok := m.userDetail.Record()
	if !ok {
		return emptyStyle.Render("Loading user...")
	}

	var s strings.Builder
	u := d.User
	width := max(m.detailView.Width-2, 10)

	s.WriteString(headingStyle.Render(fmt.Sprintf("%s (@%s)", u.DisplayName(), u.Username)) + "\n")
	s.WriteString(strings.Repeat("─", width) + "\n")
	s.WriteString(fmt.Sprintf("ID: %d   Points: %d   Level: %s   Language: %s\n",
		u.UserID, u.Points, levelLabel(u.Level), u.Language))
	s.WriteString(fmt.Sprintf("Lessons completed: %d   Streak: %d days   Registered: %s\n",
		u.TotalLessonsCompleted, u.StreakDays, formatDate(u.RegistrationDate)))
	if u.IsVIP {
		s.WriteString(selectedStyle.Render("★ VIP") + "\n")
	}
	if u.ReferralCode != "" {
		s.WriteString(mutedStyle.Render("Referral code: "+u.ReferralCode) + "\n")
	}

	s.WriteString("\n" + headingStyle.Render("Points history") + "\n")
	if len(d.PointsHistory) == 0 {
		s.WriteString(emptyStyle.Render("No transactions") + "\n")
	}
	for _, p := range d.PointsHistory {
		amount := fmt.Sprintf("%+d", p.Points)
		style := statusStyle
		if p.TransactionType == "spent" {
			amount = fmt.Sprintf("-%d", abs(p.Points))
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		}
		lines := wrapText(p.Reason, max(width-30, 20))
		s.WriteString(fmt.Sprintf("%s  %s  %s\n", formatDate(p.Date), style.Render(fmt.Sprintf("%8s", amount)), lines[0]))
		for _, line := range lines[1:] {
			s.WriteString(strings.Repeat(" ", 22) + line + "\n")
		}
	}

	s.WriteString("\n" + headingStyle.Render("Lessons progress") + "\n")
	if len(d.LessonsProgress) == 0 {
		s.WriteString(emptyStyle.Render("No lessons started") + "\n")
	}
	for _, l := range d.LessonsProgress {
		state := mutedStyle.Render("in progress")
		if l.Completed {
			state = statusStyle.Render(fmt.Sprintf("completed %s, quiz %.0f%%", formatDate(l.CompletionDate), l.QuizScore))
		}
		s.WriteString(fmt.Sprintf("• %s  %s\n", truncate(l.TitleEN, 40), state))
	}

	s.WriteString("\n" + headingStyle.Render("Purchases") + "\n")
	if len(d.Purchases) == 0 {
		s.WriteString(emptyStyle.Render("No purchases") + "\n")
	}
	for _, p := range d.Purchases {
		price := fmt.Sprintf("%d pts", p.AmountPoints)
		if p.PaymentMethod != "points" && p.AmountUSD > 0 {
			price = fmt.Sprintf("$%.2f", p.AmountUSD)
		}
		s.WriteString(fmt.Sprintf("• %s  %s  %s  %s\n",
			formatDate(p.PurchaseDate), truncate(p.NameEN, 30), price, mutedStyle.Render(p.Status)))
	}

	return s.String()
}

func (m model) renderPointsForm() string {
	verb := "Add points"
	if m.form.action == models.ActionSubtract {
		verb = "Subtract points"
	}

	var s strings.Builder
	s.WriteString(headingStyle.Render(verb) + "\n")
	s.WriteString(m.form.points.View() + "\n")
	s.WriteString(m.form.reason.View() + "\n")
	switch {
	case m.form.pending:
		s.WriteString(m.loading.View())
	case m.form.err != nil:
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗ " + m.form.err.Error()))
	}
	return s.String()
}

func emptyList(loaded bool, text string) string {
	if !loaded {
		return emptyStyle.Render("Loading...")
	}
	return emptyStyle.Render(text)
}

// pagination renders the "showing X to Y of Z" line with page position
func pagination(st listing.State) string {
	from, to := st.Range()
	pages := max(st.Pages, 1)

	prev, next := "  ", "  "
	if st.HasPrev() {
		prev = "← "
	}
	if st.HasNext() {
		next = " →"
	}
	return mutedStyle.Render(fmt.Sprintf("Showing %d to %d of %d  %sPage %d/%d%s",
		from, to, st.Total, prev, st.Page, pages, next))
}

func levelLabel(level string) string {
	switch level {
	case "beginner":
		return "Beginner"
	case "intermediate":
		return "Intermediate"
	case "advanced":
		return "Advanced"
	case "expert":
		return "Expert"
	case "":
		return "-"
	}
	return level
}

func categoryLabel(category string) string {
	switch category {
	case "vulnerability":
		return "Vulnerability"
	case "breach":
		return "Breach"
	case "malware":
		return "Malware"
	case "ransomware":
		return "Ransomware"
	case "general":
		return "General"
	case "":
		return "-"
	}
	return category
}

func severityBadge(severity string) string {
	color := "245"
	switch severity {
	case "critical":
		color = "196"
	case "high":
		color = "208"
	case "medium":
		color = "220"
	case "low":
		color = "42"
	}
	label := severity
	if label == "" {
		label = "-"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(fmt.Sprintf("%-10s", label))
}

func formatDate(s string) string {
	t := models.ParseTimestamp(s)
	if t.IsZero() {
		return s
	}
	return t.Format("2006-01-02")
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	currentLine := words[0]
	for _, word := range words[1:] {
		if len([]rune(currentLine))+1+len([]rune(word)) > width {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine += " " + word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

// truncate shortens s to maxLen runes, marking the cut with an ellipsis
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
