package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/opsboard/opsboard/cache"
	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/models"
	"github.com/opsboard/opsboard/projection"
)

// LoadedMsg reports a finished cache reload.
type LoadedMsg struct{ Err error }

// RemoteMsg is sent into the program for every realtime event the
// subscriber merges, so the board redraws without polling.
type RemoteMsg struct{ Ev gateway.ChangeEvent }

type tickMsg time.Time

// BoardModel is the live dashboard: the cache's projection plus filter and
// search state, redrawn on every local mutation, remote event, or tick.
type BoardModel struct {
	cache        *cache.Cache
	refreshEvery time.Duration

	filters   projection.Filters
	search    textinput.Model
	searching bool

	spin    spinner.Model
	loading bool
	err     error
	notice  string
}

// NewBoard builds the board over an already constructed cache. refreshEvery
// is the periodic full-reload interval.
func NewBoard(c *cache.Cache, refreshEvery time.Duration) BoardModel {
	search := textinput.New()
	search.Placeholder = "ara..."
	search.CharLimit = 64
	search.Width = 24

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = StylePrimary

	return BoardModel{
		cache:        c,
		refreshEvery: refreshEvery,
		filters:      projection.NewFilters(),
		search:       search,
		spin:         spin,
		loading:      true,
	}
}

func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadCmd(), m.tickCmd())
}

func (m BoardModel) loadCmd() tea.Cmd {
	c := m.cache
	return func() tea.Msg {
		return LoadedMsg{Err: c.Load(context.Background())}
	}
}

func (m BoardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case RemoteMsg:
		m.notice = remoteNotice(msg.Ev)
		return m, nil

	case tickMsg:
		m.loading = true
		return m, tea.Batch(m.loadCmd(), m.tickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m BoardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.loadCmd()
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "s":
		m.filters.Status = cycle(m.filters.Status, statusOptions())
		return m, nil
	case "c":
		m.filters.Category = cycle(m.filters.Category, categoryOptions())
		return m, nil
	case "p":
		m.filters.TimePhase = cycle(m.filters.TimePhase, phaseOptions())
		return m, nil
	case "x":
		m.filters.Reset()
		m.search.SetValue("")
		return m, nil
	}

	return m, nil
}

func (m BoardModel) View() string {
	tasks := m.cache.Tasks()
	visible := projection.Project(tasks, m.filters, m.search.Value())
	progress := projection.Summarize(visible)
	// The bar shows overall completion; only the counts follow the filters.
	overall := projection.Summarize(tasks)

	var sb strings.Builder
	sb.WriteString(StyleHeader.Render("opsboard"))
	if m.loading {
		sb.WriteString(" " + m.spin.View())
	}
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(StyleError.Render("⚠ "+m.err.Error()) + "\n\n")
	}

	sb.WriteString(SummaryLine(progress) + "\n")
	sb.WriteString(ProgressBar(overall, 40) + "\n\n")

	sb.WriteString(m.filterLine() + "\n\n")
	sb.WriteString(TaskTable(visible))
	sb.WriteString("\n" + StyleTitle.Render("Son Aktiviteler") + "\n")
	sb.WriteString(RecentActivity(visible, 5))

	if m.notice != "" {
		sb.WriteString("\n" + StyleSuccess.Render(m.notice) + "\n")
	}
	sb.WriteString("\n" + StyleSubtle.Render("r yenile · / ara · s durum · c kategori · p zaman · x temizle · q çıkış"))
	return sb.String()
}

func (m BoardModel) filterLine() string {
	parts := []string{
		"durum=" + m.filters.Status,
		"kategori=" + m.filters.Category,
		"zaman=" + m.filters.TimePhase,
	}
	line := StyleSubtle.Render(strings.Join(parts, "  "))
	if m.searching {
		line += "  " + m.search.View()
	} else if term := m.search.Value(); term != "" {
		line += "  " + StyleSubtle.Render("ara="+term)
	}
	return line
}

func remoteNotice(ev gateway.ChangeEvent) string {
	switch ev.Kind {
	case gateway.EventInsert:
		if ev.New != nil {
			return "Yeni görev eklendi: " + ev.New.Title
		}
	case gateway.EventUpdate:
		if ev.New != nil {
			return "Görev güncellendi: " + ev.New.Title
		}
	case gateway.EventDelete:
		return "Görev silindi"
	}
	return ""
}

func cycle(current string, options []string) string {
	for i, opt := range options {
		if opt == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func statusOptions() []string {
	opts := []string{projection.All}
	for _, s := range models.Statuses() {
		opts = append(opts, string(s))
	}
	return opts
}

func categoryOptions() []string {
	opts := []string{projection.All}
	for _, c := range models.Categories() {
		opts = append(opts, string(c))
	}
	return opts
}

func phaseOptions() []string {
	opts := []string{projection.All}
	for _, p := range models.TimePhases() {
		opts = append(opts, string(p))
	}
	return opts
}
