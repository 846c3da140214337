// Package tui provides the interactive Bubble Tea dashboard for spendlens.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendlens/internal/config"
	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/tui/components"
	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

// Analyzer is the part of the engine the dashboard drives.
type Analyzer interface {
	Summarize(ctx context.Context, req engine.SummaryRequest) (*engine.Summary, error)
	Invalidate(ctx context.Context, userID string) error
}

// Options configures the dashboard.
type Options struct {
	UserID   string
	Config   config.Config
	Analyzer Analyzer
	// Load returns the user's transactions.
	Load func(ctx context.Context) ([]model.Transaction, error)
	// Save persists settings changed from the dashboard. Optional.
	Save func(config.Config) error
	// RefreshInterval recomputes periodically when positive.
	RefreshInterval time.Duration
}

// SummaryMsg carries the result of one load-and-analyze pass.
type SummaryMsg struct {
	Summary      *engine.Summary
	Table        *model.DailyTable
	Transactions int
	Elapsed      time.Duration
	Err          error
}

type tickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	opts Options
	cfg  config.Config

	// Results
	summary     *engine.Summary
	table       *model.DailyTable
	txCount     int
	elapsed     time.Duration
	lastRefresh time.Time
	loaded      bool
	computing   bool
	err         error

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    int
	timeframe model.Timeframe

	spinner spinner.Model

	settingsForm *huh.Form
	settingsVals *settingsValues // shared with the form across model copies
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5
)

var timeframes = []model.Timeframe{model.Daily, model.Weekly, model.Monthly}

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	theme.SetActive(opts.Config.General.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	tf, ok := model.ParseTimeframe(opts.Config.General.DefaultTimeframe)
	if !ok {
		tf = model.Daily
	}
	return App{
		opts:      opts,
		cfg:       opts.Config,
		timeframe: tf,
		spinner:   sp,
		computing: true,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		a.computeCmd(false),
	}
	if a.opts.RefreshInterval > 0 {
		cmds = append(cmds, tickCmd(a.opts.RefreshInterval))
	}
	return tea.Batch(cmds...)
}

func (a App) request(txs []model.Transaction) engine.SummaryRequest {
	return engine.SummaryRequest{
		UserID:        a.opts.UserID,
		Transactions:  txs,
		Horizon:       a.cfg.General.ForecastHorizon,
		Timeframe:     a.timeframe,
		Period:        model.BudgetPeriod(a.cfg.Budget.Period),
		SavingsGoal:   a.cfg.Budget.SavingsGoal,
		MonthlyBudget: a.cfg.MonthlyBudget(),
	}
}

// computeCmd loads transactions and runs every analysis. invalidate drops
// cached results first.
func (a App) computeCmd(invalidate bool) tea.Cmd {
	snap := a
	return func() tea.Msg {
		start := time.Now()
		ctx := context.Background()

		if invalidate {
			if err := snap.opts.Analyzer.Invalidate(ctx, snap.opts.UserID); err != nil {
				return SummaryMsg{Err: err, Elapsed: time.Since(start)}
			}
		}
		txs, err := snap.opts.Load(ctx)
		if err != nil {
			return SummaryMsg{Err: err, Elapsed: time.Since(start)}
		}
		s, err := snap.opts.Analyzer.Summarize(ctx, snap.request(txs))
		if err != nil {
			return SummaryMsg{Err: err, Elapsed: time.Since(start)}
		}
		return SummaryMsg{
			Summary:      s,
			Table:        pipeline.Build(txs),
			Transactions: len(txs),
			Elapsed:      time.Since(start),
		}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{} })
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.settingsForm != nil {
		if size, ok := msg.(tea.WindowSizeMsg); ok {
			a.width, a.height = size.Width, size.Height
		}
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if _, ok := msg.(SummaryMsg); !ok {
			return a.updateSettingsForm(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scroll = max(0, a.scroll-1)
		case tea.MouseButtonWheelDown:
			a.scroll++
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.setTab(tab)
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case SummaryMsg:
		a.computing = false
		a.elapsed = msg.Elapsed
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.loaded = true
		a.summary = msg.Summary
		a.table = msg.Table
		a.txCount = msg.Transactions
		a.lastRefresh = time.Now()
		return a, nil

	case spinner.TickMsg:
		if a.computing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(a.opts.RefreshInterval)}
		if !a.computing {
			a.computing = true
			cmds = append(cmds, a.computeCmd(false), a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "?":
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "r":
		if a.computing {
			return a, nil
		}
		a.computing = true
		return a, tea.Batch(a.computeCmd(true), a.spinner.Tick)
	case "t":
		if a.computing {
			return a, nil
		}
		a.timeframe = nextTimeframe(a.timeframe)
		a.computing = true
		return a, tea.Batch(a.computeCmd(false), a.spinner.Tick)
	case "s":
		return a.openSettings()
	case "left":
		a.setTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right", "tab":
		a.setTab((a.activeTab + 1) % len(components.Tabs))
	case "j", "down":
		a.scroll++
	case "k", "up":
		a.scroll = max(0, a.scroll-1)
	case "g":
		a.scroll = 0
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.setTab(idx)
			}
		}
	}
	return a, nil
}

func (a *App) setTab(idx int) {
	if idx != a.activeTab {
		a.scroll = 0
	}
	a.activeTab = idx
}

func nextTimeframe(tf model.Timeframe) model.Timeframe {
	for i, t := range timeframes {
		if t == tf {
			return timeframes[(i+1)%len(timeframes)]
		}
	}
	return model.Daily
}

// tabAtX returns the tab under column x of the tab bar, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  spendlens needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if a.settingsForm != nil {
		return a.settingsForm.View()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	bad := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logo.Render("◈ spendlens"))
	b.WriteString(muted.Render(" · " + a.opts.UserID))
	b.WriteString("\n\n")
	switch {
	case a.err != nil:
		b.WriteString(bad.Render(a.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(muted.Render("[r] retry  [q] quit"))
	default:
		b.WriteString(a.spinner.View())
		b.WriteString(muted.Render(" Analyzing transactions…"))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	bindings := []struct{ key, desc string }{
		{"f b p d", "Jump to tab"},
		{"← →", "Previous / next tab"},
		{"j k", "Scroll"},
		{"t", "Cycle forecast timeframe"},
		{"r", "Recompute from fresh data"},
		{"s", "Budget settings"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	var b strings.Builder
	b.WriteString(title.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n", key.Render(fmt.Sprintf("%-8s", bind.key)), desc.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w, cw := a.width, a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.status())

	contentH := max(minContentHeight, a.height-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch a.activeTab {
	case 0:
		content = a.renderForecastTab(cw)
	case 1:
		content = a.renderBudgetTab(cw)
	case 2:
		content = a.renderPatternsTab(cw)
	case 3:
		content = a.renderDataTab(cw)
	}
	content = window(content, a.scroll, contentH)
	content = fillLines(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) status() components.Status {
	s := components.Status{User: a.opts.UserID, Computing: a.computing}
	if a.err != nil {
		s.Error = a.err.Error()
	}
	if a.summary != nil && a.summary.Forecast != nil {
		s.Strategy = a.summary.Forecast.Strategy + " · " + string(a.timeframe)
	}
	if !a.lastRefresh.IsZero() {
		s.DataAge = fmt.Sprintf("%d txs in %.1fs", a.txCount, a.elapsed.Seconds())
	}
	return s
}

// window returns h lines of s starting at offset, padded to exactly h.
func window(s string, offset, h int) string {
	lines := strings.Split(s, "\n")
	offset = max(0, min(offset, len(lines)-1))
	lines = lines[offset:]
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// fillLines pads every line to width w with the background color.
func fillLines(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
