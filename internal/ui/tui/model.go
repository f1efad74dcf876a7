package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/sharesave/internal/event"
	"github.com/bamsammich/sharesave/internal/stats"
	"github.com/bamsammich/sharesave/internal/ui"
)

type viewMode int

const (
	viewFeed viewMode = iota
	viewRate
	viewErrors
)

type (
	engineEventMsg event.Event
	runDoneMsg     struct{}
	tickMsg        time.Time
	reportMsg      struct {
		path string
		err  error
	}
)

func nextEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return runDoneMsg{}
		}
		return engineEventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type keyMap struct {
	Quit, Feed, Rate, Errors, Down, Up, Top, Bottom, Report key.Binding
}

func newKeyMap() keyMap {
	k := keyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Feed:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "feed")),
		Rate:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rate")),
		Errors: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "errors")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "scroll")),
		Up:     key.NewBinding(key.WithKeys("k", "up")),
		Top:    key.NewBinding(key.WithKeys("g")),
		Bottom: key.NewBinding(key.WithKeys("G")),
		Report: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "report")),
	}
	k.Report.SetEnabled(false)
	return k
}

// footer lists the bindings shown in the help line, report first once the
// run is over.
func (k keyMap) footer() []key.Binding {
	return []key.Binding{k.Report, k.Quit, k.Feed, k.Rate, k.Errors, k.Down}
}

// Model is the root Bubble Tea model.
type Model struct {
	events <-chan event.Event
	stats  stats.ReadTicker
	title  string // share name
	dest   string
	onQuit func() // cancels the run when the user quits early

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	report  textinput.Model

	mode      viewMode
	feed      feedView
	rate      rateView
	width     int
	height    int
	status    string
	prompting bool // report path prompt is open
	done      bool
	quitting  bool

	lastSnap  stats.Snapshot
	lastSpeed float64
}

// NewModel creates the TUI model. Styles must be final (ApplyTheme) before
// this is called.
func NewModel(events <-chan event.Event, collector stats.ReadTicker, title, dest string, onQuit func()) Model {
	h := help.New()
	h.ShortSeparator = "   "
	h.Styles.ShortKey = styleKey
	h.Styles.ShortDesc = styleKeyLabel
	h.Styles.ShortSeparator = styleKeyLabel

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = stylePending

	in := textinput.New()
	in.Prompt = "report: "
	in.PromptStyle = stylePrompt
	in.TextStyle = styleInput
	in.CharLimit = 4096

	return Model{
		events:  events,
		stats:   collector,
		title:   title,
		dest:    dest,
		onQuit:  onQuit,
		keys:    newKeyMap(),
		help:    h,
		spinner: sp,
		report:  in,
		feed:    newFeedView(),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(nextEvent(m.events), tick(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case engineEventMsg:
		m.feed.handleEvent(event.Event(msg))
		return m, nextEvent(m.events)

	case runDoneMsg:
		m.done = true
		m.keys.Report.SetEnabled(true)
		m.refresh()

	case tickMsg:
		if !m.done {
			m.stats.Tick()
			m.refresh()
			return m, tick()
		}

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case reportMsg:
		m.prompting = false
		m.report.Blur()
		if msg.err != nil {
			m.status = "report failed: " + msg.err.Error()
		} else {
			m.status = "report written to " + msg.path
		}
	}
	return m, nil
}

func (m *Model) refresh() {
	m.lastSnap = m.stats.Snapshot()
	m.lastSpeed = m.stats.RollingSpeed(10)
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		if !m.done && m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit
	case key.Matches(msg, k.Feed):
		m.mode, m.status = viewFeed, ""
	case key.Matches(msg, k.Rate):
		m.mode, m.status = viewRate, ""
	case key.Matches(msg, k.Errors):
		m.mode, m.status = viewErrors, ""
	case key.Matches(msg, k.Report):
		m.prompting, m.status = true, ""
		m.report.SetValue("sharesave-" + time.Now().Format("2006-01-02-150405") + ".log")
		m.report.CursorEnd()
		return m, m.report.Focus()
	case m.mode != viewFeed:
	case key.Matches(msg, k.Down):
		m.feed.scrollDown()
	case key.Matches(msg, k.Up):
		m.feed.scrollUp()
	case key.Matches(msg, k.Top):
		m.feed.scrollToTop()
	case key.Matches(msg, k.Bottom):
		m.feed.scrollToBottom()
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.prompting = false
		m.report.Blur()
		return m, nil
	case tea.KeyEnter:
		return m, m.writeReport(strings.TrimSpace(m.report.Value()))
	}
	var cmd tea.Cmd
	m.report, cmd = m.report.Update(msg)
	return m, cmd
}

// writeReport renders the summary and the feed history to path.
func (m Model) writeReport(path string) tea.Cmd {
	var b strings.Builder
	fmt.Fprintf(&b, "sharesave report %s\n", time.Now().Format(time.DateTime))
	fmt.Fprintf(&b, "share  %s\ndest   %s\n%s\n\n", m.title, m.dest, ui.CompletionSummary(m.lastSnap))
	for _, e := range m.feed.entries {
		p := ui.FolderPath(e.path)
		switch e.kind {
		case entryBatch:
			fmt.Fprintf(&b, "saved       %s  %d files  %s\n", p, e.files, ui.FormatBytes(e.size))
		case entryFolder:
			fmt.Fprintf(&b, "saved       %s/\n", p)
		case entryOverloaded:
			fmt.Fprintf(&b, "walked      %s/\n", p)
		case entryFailed:
			fmt.Fprintf(&b, "failed      %s  %s\n", p, e.errMsg)
		}
	}
	data := b.String()

	return func() tea.Msg {
		err := os.WriteFile(path, []byte(data), 0o644) //nolint:gosec // user-chosen report path
		return reportMsg{path: path, err: err}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	body := max(m.height-3, 3) // header, prompt/status, footer
	switch m.mode {
	case viewFeed:
		b.WriteString(m.feed.view(m.width, body, false))
	case viewErrors:
		b.WriteString(m.feed.view(m.width, body, true))
	case viewRate:
		b.WriteString(m.rate.view(m.width, m.lastSnap, m.stats))
	}

	switch {
	case m.prompting:
		b.WriteString("  " + m.report.View())
	case m.status != "":
		b.WriteString(styleStatus.Render("  " + m.status))
	}
	b.WriteByte('\n')
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	s := m.lastSnap
	label := styleHeaderLabel.Render("sharesave")

	var state, rest string
	switch {
	case m.done && s.Failed:
		state = styleIconFailed.Render("failed")
	case m.done:
		state = styleIconDone.Render("done")
	default:
		state = m.spinner.View() + " " + m.title
		rest = "  " + ui.FormatRate(m.lastSpeed) + "  " + ui.FormatCount(s.Outstanding) + " pending"
	}
	return styleHeader.Render(fmt.Sprintf("  %s  %s  %s  %s files  %s folders%s  %s",
		label, state,
		ui.FormatBytes(s.SavedBytes),
		ui.FormatCount(s.SavedFiles),
		ui.FormatCount(s.SavedFolders),
		rest,
		ui.FormatDuration(s.Elapsed),
	))
}

func (m Model) renderFooter() string {
	return "  " + m.help.ShortHelpView(m.keys.footer())
}
