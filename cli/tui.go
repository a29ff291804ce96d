package cli

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ka2n/sitelens/api"
	"github.com/ka2n/sitelens/log"
	"github.com/ka2n/sitelens/render"
	"github.com/ka2n/sitelens/state"
	"github.com/ka2n/sitelens/view"
	"github.com/mattn/go-isatty"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [domain]",
	Short: "Run the lookup widget in the terminal",
	Long: `Run the lookup widget in the terminal. Type a domain and press enter;
site data and related sites fill in as each fetch completes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	activeBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			PaddingLeft(1).
			PaddingRight(1)

	inactiveBorder = activeBorder.
			BorderForeground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(2)
)

const (
	sectionSiteData = iota
	sectionRelatedLinks
)

// regionMsg carries a region update from a display component into the program
type regionMsg struct {
	section  int
	op       string
	fragment string
}

const (
	opClear  = "clear"
	opAppend = "append"
	opFail   = "fail"
)

// teaRegion forwards region updates to a running tea.Program
type teaRegion struct {
	section int
	send    func(tea.Msg)
}

var _ view.Region = (*teaRegion)(nil)

func (r *teaRegion) Clear() {
	r.send(regionMsg{section: r.section, op: opClear})
}

func (r *teaRegion) Append(fragment string) {
	r.send(regionMsg{section: r.section, op: opAppend, fragment: fragment})
}

func (r *teaRegion) Fail(fragment string) {
	r.send(regionMsg{section: r.section, op: opFail, fragment: fragment})
}

type section struct {
	title     string
	viewport  viewport.Model
	fragments []string
	failed    bool
}

// widgetModel is the terminal rendition of the lookup page
type widgetModel struct {
	input    textinput.Model
	sections [2]*section
	active   int
	ready    bool

	terminal *render.Terminal
	// submit runs a search. It is called from a tea.Cmd, never from Update.
	submit  func(domain string)
	initial string
}

func newWidgetModel(terminal *render.Terminal, submit func(string), initial string) *widgetModel {
	ti := textinput.New()
	ti.Prompt = "domain> "
	ti.Placeholder = "example.com"
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.SetValue(initial)
	ti.Focus()

	return &widgetModel{
		input: ti,
		sections: [2]*section{
			sectionSiteData:     {title: "Site data"},
			sectionRelatedLinks: {title: "Related sites"},
		},
		terminal: terminal,
		submit:   submit,
		initial:  initial,
	}
}

func (m *widgetModel) Init() tea.Cmd {
	if m.initial == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, m.search(m.initial))
}

// search submits domain off the event loop. Display components deliver
// their output through Program.Send, which would block inside Update.
func (m *widgetModel) search(domain string) tea.Cmd {
	submit := m.submit
	return func() tea.Msg {
		submit(domain)
		return nil
	}
}

func (m *widgetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		current := &m.sections[m.active].viewport
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m, m.search(m.input.Value())
		case "tab":
			m.active = (m.active + 1) % len(m.sections)
			return m, nil
		case "down":
			current.ScrollDown(1)
			return m, nil
		case "up":
			current.ScrollUp(1)
			return m, nil
		case "pgdown":
			current.ScrollDown(current.Height)
			return m, nil
		case "pgup":
			current.ScrollUp(current.Height)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

	case regionMsg:
		s := m.sections[msg.section]
		switch msg.op {
		case opClear:
			s.fragments = nil
			s.failed = false
		case opAppend:
			s.fragments = append(s.fragments, msg.fragment)
		case opFail:
			s.fragments = append(s.fragments, msg.fragment)
			s.failed = true
		}
		m.refresh(s)

	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// layout splits the screen between the input line, both sections and help
func (m *widgetModel) layout(width, height int) {
	// input and help lines, plus border and title per section
	inner := max((height-2)/2-3, 1)
	w := max(width-4, 1)
	for _, s := range m.sections {
		if !m.ready {
			s.viewport = viewport.New(w, inner)
		} else {
			s.viewport.Width = w
			s.viewport.Height = inner
		}
	}
	m.input.Width = max(width-len(m.input.Prompt)-1, 1)
	m.ready = true
	for _, s := range m.sections {
		m.refresh(s)
	}
}

func (m *widgetModel) refresh(s *section) {
	if !m.ready {
		return
	}
	if len(s.fragments) == 0 {
		s.viewport.SetContent("")
		return
	}
	content, err := m.terminal.Render(s.fragments)
	if err != nil {
		log.Error("Render failed", "section", s.title, "error", err)
		content = strings.Join(s.fragments, "\n")
	}
	s.viewport.SetContent(content)
	s.viewport.GotoTop()
}

func (m *widgetModel) View() string {
	if !m.ready {
		return "\nInitializing..."
	}

	views := []string{m.input.View()}
	for i, s := range m.sections {
		title := s.title
		if s.failed {
			title += " (failed)"
		}
		border := inactiveBorder
		if i == m.active {
			border = activeBorder
		}
		views = append(views, border.Render(titleStyle.Render(title)+"\n"+s.viewport.View()))
	}
	views = append(views, helpStyle.Render("enter search • tab switch section • ↑/↓ scroll • pgup/pgdn page • esc quit"))
	return lipgloss.JoinVertical(lipgloss.Left, views...)
}

func runTUI(cmd *cobra.Command, args []string) error {
	templates, err := render.New()
	if err != nil {
		return failure.Wrap(err)
	}
	// glamour probes the terminal, which must happen before the program owns it
	terminal, err := render.NewTerminal(80, isatty.IsTerminal(os.Stdout.Fd()))
	if err != nil {
		return failure.Wrap(err)
	}

	var initial string
	if len(args) == 1 {
		initial = args[0]
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client := api.NewClient(cfg.DirectRelayURL(), cfg.Limit)
	store := state.New(client)

	var page *view.Page
	model := newWidgetModel(terminal, func(domain string) {
		page.Input.Submit(domain)
	}, initial)
	p := tea.NewProgram(model, tea.WithAltScreen())

	page = view.NewPage(ctx, store, templates,
		&teaRegion{section: sectionSiteData, send: p.Send},
		&teaRegion{section: sectionRelatedLinks, send: p.Send},
	)

	_, err = p.Run()

	cancel()
	page.Close()
	page.Wait()
	return err
}
