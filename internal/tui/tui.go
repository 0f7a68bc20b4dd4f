package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/secacademy/academy-admin/internal/listing"
	"github.com/secacademy/academy-admin/internal/mutation"
	"github.com/secacademy/academy-admin/pkg/models"
)

// Backend is the part of the admin API the console talks to
type Backend interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
	Users(ctx context.Context, q listing.Query) (listing.Page[models.User], error)
	User(ctx context.Context, id int64) (models.UserDetail, error)
	AdjustPoints(ctx context.Context, id int64, adj models.PointsAdjustment) error
	Lessons(ctx context.Context, q listing.Query) (listing.Page[models.Lesson], error)
	News(ctx context.Context, q listing.Query) (listing.Page[models.News], error)
}

type screen int

const (
	dashboardScreen screen = iota
	usersScreen
	lessonsScreen
	newsScreen
	screenCount
)

func (s screen) String() string {
	switch s {
	case dashboardScreen:
		return "Dashboard"
	case usersScreen:
		return "Users"
	case lessonsScreen:
		return "Lessons"
	case newsScreen:
		return "News"
	}
	return "?"
}

type viewMode int

const (
	browseMode viewMode = iota
	searchMode
	detailMode
	pointsMode
)

type pointsForm struct {
	userID  int64
	action  string
	points  textinput.Model
	reason  textinput.Model
	focus   int
	pending bool
	err     error
}

type model struct {
	ctx      context.Context
	operator models.Operator
	keys     keyMap
	help     help.Model

	screen      screen
	currentMode viewMode

	dashboard  *listing.Detail[struct{}, models.DashboardStats]
	users      *listing.Controller[models.User]
	lessons    *listing.Controller[models.Lesson]
	news       *listing.Controller[models.News]
	userDetail *listing.Detail[int64, models.UserDetail]
	points     *mutation.Dispatcher[int64, models.PointsAdjustment, models.User, models.UserDetail]

	cursors    map[screen]int
	opened     map[screen]bool
	search     textinput.Model
	form       pointsForm
	detailView viewport.Model
	loading    *LoadingIndicator
	ticking    bool
	status     string
	initCmd    tea.Cmd

	ready  bool
	width  int
	height int
}

func initialModel(ctx context.Context, backend Backend, operator models.Operator, limit int) model {
	users := listing.NewController(backend.Users, limit)
	userDetail := listing.NewDetail(backend.User)

	search := textinput.New()
	search.Placeholder = "name or username"
	search.Prompt = "/ "
	search.CharLimit = 64

	m := model{
		ctx:        ctx,
		operator:   operator,
		keys:       defaultKeyMap(),
		help:       help.New(),
		screen:     dashboardScreen,
		dashboard:  listing.NewDetail(func(ctx context.Context, _ struct{}) (models.DashboardStats, error) { return backend.Dashboard(ctx) }),
		users:      users,
		lessons:    listing.NewController(backend.Lessons, limit),
		news:       listing.NewController(backend.News, limit),
		userDetail: userDetail,
		points:     mutation.New(backend.AdjustPoints, users, userDetail),
		cursors:    make(map[screen]int),
		opened:     make(map[screen]bool),
		search:     search,
		loading:    NewLoadingIndicator("Loading..."),
	}
	m.initCmd = m.openScreen(dashboardScreen)
	m.ticking = true
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.initCmd, tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := max(msg.Height-6, 1)

		if !m.ready {
			m.detailView = viewport.New(msg.Width, bodyHeight)
			m.ready = true
		} else {
			m.detailView.Width = msg.Width
			m.detailView.Height = bodyHeight
		}
		m.help.Width = msg.Width
		m.refreshDetailView()

	case TickMsg:
		m.loading.Tick()
		if m.anyLoading() {
			return m, tickCmd()
		}
		m.ticking = false
		return m, nil

	case ListLoadedMsg[models.User]:
		cmds = append(cmds, applyList(m.ctx, m.users, msg.Result))
		m.clampCursor(usersScreen, len(m.users.Rows()))

	case ListLoadedMsg[models.Lesson]:
		cmds = append(cmds, applyList(m.ctx, m.lessons, msg.Result))
		m.clampCursor(lessonsScreen, len(m.lessons.Rows()))

	case ListLoadedMsg[models.News]:
		cmds = append(cmds, applyList(m.ctx, m.news, msg.Result))
		m.clampCursor(newsScreen, len(m.news.Rows()))

	case UserLoadedMsg:
		m.userDetail.Apply(msg.Result)
		m.refreshDetailView()

	case DashboardLoadedMsg:
		m.dashboard.Apply(msg.Result)

	case PointsAppliedMsg:
		cmds = append(cmds, m.completePoints(msg.Outcome))

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.ensureTick())
	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return nil, true
	}

	switch m.currentMode {
	case searchMode:
		return m.handleSearchKey(msg), false
	case pointsMode:
		return m.handlePointsKey(msg), false
	case detailMode:
		return m.handleDetailKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *model) handleBrowseKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true

	case key.Matches(msg, m.keys.NextTab):
		return m.openScreen((m.screen + 1) % screenCount), false

	case key.Matches(msg, m.keys.PrevTab):
		return m.openScreen((m.screen + screenCount - 1) % screenCount), false

	case key.Matches(msg, m.keys.Up):
		if m.cursors[m.screen] > 0 {
			m.cursors[m.screen]--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursors[m.screen] < m.rowCount()-1 {
			m.cursors[m.screen]++
		}

	case key.Matches(msg, m.keys.NextPage):
		return m.turnPage(true), false

	case key.Matches(msg, m.keys.PrevPage):
		return m.turnPage(false), false

	case key.Matches(msg, m.keys.Refresh):
		return m.refreshScreen(), false

	case key.Matches(msg, m.keys.Search):
		if m.screen == usersScreen {
			m.currentMode = searchMode
			return m.search.Focus(), false
		}

	case key.Matches(msg, m.keys.Open):
		if m.screen == usersScreen {
			rows := m.users.Rows()
			if c := m.cursors[usersScreen]; c < len(rows) {
				m.currentMode = detailMode
				cmd := fetchUserCmd(m.ctx, m.userDetail.Select(rows[c].UserID))
				m.refreshDetailView()
				return cmd, false
			}
		}

	default:
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= int(screenCount) {
			return m.openScreen(screen(n - 1)), false
		}
	}
	return nil, false
}

func (m *model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.currentMode = browseMode
		m.search.Blur()
		return nil

	case tea.KeyEsc:
		m.currentMode = browseMode
		m.search.Blur()
		if m.search.Value() == "" {
			return nil
		}
		m.search.SetValue("")
		m.cursors[usersScreen] = 0
		return fetchListCmd(m.ctx, m.users.SetSearch(""))
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.cursors[usersScreen] = 0
		return tea.Batch(cmd, fetchListCmd(m.ctx, m.users.SetSearch(strings.TrimSpace(after))))
	}
	return cmd
}

func (m *model) handleDetailKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true

	case key.Matches(msg, m.keys.Back):
		m.userDetail.Close()
		m.currentMode = browseMode
		return nil, false

	case key.Matches(msg, m.keys.Refresh):
		return fetchUserCmd(m.ctx, m.userDetail.Reload()), false

	case key.Matches(msg, m.keys.AddPoints):
		return m.openPointsForm(models.ActionAdd), false

	case key.Matches(msg, m.keys.SubPoints):
		return m.openPointsForm(models.ActionSubtract), false
	}

	var cmd tea.Cmd
	m.detailView, cmd = m.detailView.Update(msg)
	return cmd, false
}

func (m *model) openPointsForm(action string) tea.Cmd {
	id, ok := m.userDetail.Selected()
	if !ok {
		return nil
	}

	points := textinput.New()
	points.Placeholder = "points"
	points.Prompt = "Points: "
	points.CharLimit = 9

	reason := textinput.New()
	reason.Placeholder = "Admin adjustment"
	reason.Prompt = "Reason: "
	reason.CharLimit = 120

	m.form = pointsForm{userID: id, action: action, points: points, reason: reason}
	m.currentMode = pointsMode
	return m.form.points.Focus()
}

func (m *model) handlePointsKey(msg tea.KeyMsg) tea.Cmd {
	if m.form.pending {
		return nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.currentMode = detailMode
		return nil

	case tea.KeyTab, tea.KeyShiftTab:
		m.form.focus = 1 - m.form.focus
		if m.form.focus == 0 {
			m.form.reason.Blur()
			return m.form.points.Focus()
		}
		m.form.points.Blur()
		return m.form.reason.Focus()

	case tea.KeyEnter:
		return m.submitPoints()
	}

	var cmd tea.Cmd
	if m.form.focus == 0 {
		m.form.points, cmd = m.form.points.Update(msg)
	} else {
		m.form.reason, cmd = m.form.reason.Update(msg)
	}
	return cmd
}

func (m *model) submitPoints() tea.Cmd {
	n, err := strconv.ParseInt(strings.TrimSpace(m.form.points.Value()), 10, 64)
	if err != nil {
		m.form.err = models.ErrInvalidPoints
		return nil
	}

	reason := strings.TrimSpace(m.form.reason.Value())
	if reason == "" {
		reason = m.form.reason.Placeholder
	}

	adj := models.PointsAdjustment{Points: n, Reason: reason, Action: m.form.action}
	if err := adj.Validate(); err != nil {
		m.form.err = err
		return nil
	}

	m.form.err = nil
	m.form.pending = true
	return applyPointsCmd(m.ctx, m.points.Prepare(m.form.userID, adj))
}

func (m *model) completePoints(o mutation.Outcome[int64]) tea.Cmd {
	m.form.pending = false

	f, err := m.points.Complete(o)
	if err != nil {
		m.form.err = err
		return nil
	}

	m.status = "Points updated for user " + strconv.FormatInt(o.ID, 10)
	if m.currentMode == pointsMode {
		m.currentMode = detailMode
		if !m.userDetail.IsOpen(o.ID) {
			m.currentMode = browseMode
		}
	}
	return tea.Batch(fetchListCmd(m.ctx, f.List), fetchUserCmd(m.ctx, f.Detail))
}

// openScreen switches screens, issuing the first load of a screen on its first visit
func (m *model) openScreen(s screen) tea.Cmd {
	m.screen = s
	m.status = ""
	if m.opened[s] {
		return nil
	}
	m.opened[s] = true

	switch s {
	case dashboardScreen:
		return fetchDashboardCmd(m.ctx, m.dashboard.Select(struct{}{}))
	case usersScreen:
		return fetchListCmd(m.ctx, m.users.Load())
	case lessonsScreen:
		return fetchListCmd(m.ctx, m.lessons.Load())
	case newsScreen:
		return fetchListCmd(m.ctx, m.news.Load())
	}
	return nil
}

func (m *model) refreshScreen() tea.Cmd {
	m.status = ""
	switch m.screen {
	case dashboardScreen:
		return fetchDashboardCmd(m.ctx, m.dashboard.Reload())
	case usersScreen:
		return fetchListCmd(m.ctx, m.users.Refresh())
	case lessonsScreen:
		return fetchListCmd(m.ctx, m.lessons.Refresh())
	case newsScreen:
		return fetchListCmd(m.ctx, m.news.Refresh())
	}
	return nil
}

func (m *model) turnPage(next bool) tea.Cmd {
	var cmd tea.Cmd
	var ok bool
	switch m.screen {
	case usersScreen:
		cmd, ok = turnPage(m.ctx, m.users, next)
	case lessonsScreen:
		cmd, ok = turnPage(m.ctx, m.lessons, next)
	case newsScreen:
		cmd, ok = turnPage(m.ctx, m.news, next)
	}
	if ok {
		m.cursors[m.screen] = 0
	}
	return cmd
}

func turnPage[T any](ctx context.Context, c *listing.Controller[T], next bool) (tea.Cmd, bool) {
	var p *listing.Pending[T]
	var ok bool
	if next {
		p, ok = c.NextPage()
	} else {
		p, ok = c.PrevPage()
	}
	if !ok {
		return nil, false
	}
	return fetchListCmd(ctx, p), true
}

func applyList[T any](ctx context.Context, c *listing.Controller[T], r listing.Result[T]) tea.Cmd {
	_, follow := c.Apply(r)
	return fetchListCmd(ctx, follow)
}

func (m *model) rowCount() int {
	switch m.screen {
	case usersScreen:
		return len(m.users.Rows())
	case lessonsScreen:
		return len(m.lessons.Rows())
	case newsScreen:
		return len(m.news.Rows())
	}
	return 0
}

func (m *model) clampCursor(s screen, rows int) {
	if m.cursors[s] >= rows {
		m.cursors[s] = max(rows-1, 0)
	}
}

func (m *model) anyLoading() bool {
	return m.dashboard.Loading() || m.users.Loading() || m.lessons.Loading() ||
		m.news.Loading() || m.userDetail.Loading() || m.form.pending
}

// ensureTick starts the spinner ticker when something is loading and none is running
func (m *model) ensureTick() tea.Cmd {
	if m.ticking || !m.anyLoading() {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

// Run starts the console and blocks until the operator quits
func Run(ctx context.Context, backend Backend, operator models.Operator, limit int) error {
	p := tea.NewProgram(
		initialModel(ctx, backend, operator, limit),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
