package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
)

const (
	debounceDelay   = 200 * time.Millisecond
	refreshInterval = 30 * time.Second
)

// message types

type departuresMsg struct {
	filter     string
	departures []search.Departure
	err        error
}

type debounceTickMsg struct {
	filter string
}

type refreshTickMsg struct{}

// loader fetches departures for a filter; the board never touches the store
// directly so tests can feed it canned data.
type loader func(filter string) ([]search.Departure, error)

type model struct {
	load        loader
	filter      string
	departures  []search.Departure
	cursor      int
	listOffset  int
	filterInput textinput.Model
	detail      viewport.Model
	detailKey   string
	loadErr     error
	width       int
	height      int
	ready       bool
	quitting    bool
	chosen      *search.Departure
}

func initialModel(load loader, filter string) model {
	ti := textinput.New()
	ti.Placeholder = "Filter by vehicle, site, group..."
	ti.Focus()
	ti.SetValue(filter)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 128

	return model{
		load:        load,
		filter:      filter,
		filterInput: ti,
		detail:      newViewport(0, 0),
	}
}

// Run starts the departures board and blocks until it exits. Enter copies
// the selected departure to the clipboard.
func Run(db *index.DB, filter string, opts search.Options) error {
	load := func(filter string) ([]search.Departure, error) {
		o := opts
		o.Filter = filter
		o.Now = time.Now()
		return search.Upcoming(context.Background(), db, o)
	}
	p := tea.NewProgram(initialModel(load, filter), tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.chosen != nil {
		return copyDeparture(*fm.chosen)
	}
	return nil
}

// Summary is the one-line form copied to the clipboard.
func Summary(d search.Departure) string {
	s := fmt.Sprintf("%s %s %s -> %s (%s)", d.When, d.Vehicle, d.Location, d.Destination, d.TargetGroup)
	if d.Comments != "" {
		s += " - " + d.Comments
	}
	return s
}

func copyDeparture(d search.Departure) error {
	line := Summary(d)
	if err := clipboard.WriteAll(line); err != nil {
		fmt.Printf("%s\n", line)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", line)
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.doLoad(m.filter), scheduleRefresh())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.detail = newViewport(m.detailWidth(), m.panelHeight())
		m.detailKey = ""
		m.syncDetail()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter):
			if d, ok := m.selected(); ok {
				m.chosen = &d
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				m.syncDetail()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.departures)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				m.syncDetail()
			}
			return m, nil

		case key.Matches(msg, keys.DetailUp):
			m.detail.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.DetailDn):
			m.detail.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.Refresh):
			return m, m.doLoad(m.filter)
		}

		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if v := m.filterInput.Value(); v != m.filter {
			m.filter = v
			cmds = append(cmds, scheduleDebounce(v))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.MouseButtonWheelDown:
			if m.cursor < len(m.departures)-1 {
				m.cursor++
			}
		default:
			return m, nil
		}
		m.adjustListScroll(m.panelHeight())
		m.syncDetail()
		return m, nil

	case debounceTickMsg:
		// only load if the filter hasn't changed since the tick was scheduled
		if msg.filter == m.filter {
			return m, m.doLoad(msg.filter)
		}
		return m, nil

	case refreshTickMsg:
		// relative labels age, so reload on a timer
		return m, tea.Batch(m.doLoad(m.filter), scheduleRefresh())

	case departuresMsg:
		if msg.filter != m.filter {
			return m, nil
		}
		m.loadErr = msg.err
		if msg.err != nil {
			m.departures = nil
			m.cursor, m.listOffset = 0, 0
			m.syncDetail()
			return m, nil
		}

		// keep the selection on the same departure across refreshes
		prev, hadPrev := m.selected()
		m.departures = msg.departures
		m.cursor = 0
		if hadPrev {
			want := detailKey(prev)
			for i, d := range m.departures {
				if detailKey(d) == want {
					m.cursor = i
					break
				}
			}
		}
		m.listOffset = 0
		m.adjustListScroll(m.panelHeight())
		m.syncDetail()
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	detailW := m.detailWidth()
	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.detail.Width = detailW
	m.detail.Height = panelH
	detailPanel := styleActiveBorder.
		Width(detailW).
		Height(panelH).
		Render(m.detail.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, detailPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

func (m model) selected() (search.Departure, bool) {
	if m.cursor < 0 || m.cursor >= len(m.departures) {
		return search.Departure{}, false
	}
	return m.departures[m.cursor], true
}

// syncDetail points the detail panel at the selected departure.
func (m *model) syncDetail() {
	if m.loadErr != nil {
		m.detail.SetContent("Error: " + m.loadErr.Error())
		m.detailKey = ""
		return
	}
	d, ok := m.selected()
	if !ok {
		m.detail.SetContent("")
		m.detailKey = ""
		return
	}
	k := detailKey(d) + "|" + d.Label
	if k == m.detailKey {
		return
	}
	m.detail.SetContent(renderDetail(d, m.detailWidth()))
	m.detail.GotoTop()
	m.detailKey = k
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*45/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) detailWidth() int {
	if m.width <= 0 {
		return 50
	}
	w := m.width*55/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d departures", len(m.departures)),
		"up/dn navigate",
		"C-u/C-d detail",
		"C-r refresh",
		"Enter copy",
		"Esc quit",
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) doLoad(filter string) tea.Cmd {
	load := m.load
	return func() tea.Msg {
		deps, err := load(filter)
		return departuresMsg{filter: filter, departures: deps, err: err}
	}
}

func scheduleDebounce(filter string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{filter: filter}
	})
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}
