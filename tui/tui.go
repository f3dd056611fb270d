// Package tui browses a seed graph in the terminal: a search box with its
// dropdown and the infobox of the selected seed.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/search"
	"github.com/bobinette/seedgraph/session"
)

const maxNameWidth = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	activeStyle = lipgloss.NewStyle().Reverse(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	subtleStyle = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Model is the bubbletea model of the browser. All the state lives in the
// session view, the model only adds the text input.
type Model struct {
	graph *seedgraph.Graph
	view  *session.View
	input textinput.Model
	err   error
}

func New(g *seedgraph.Graph, v *session.View) Model {
	input := textinput.New()
	input.Placeholder = "Search seeds, a comma separates alternatives"
	input.Prompt = "> "
	input.Focus()

	return Model{
		graph: g,
		view:  v,
		input: input,
	}
}

// Run starts the browser on the terminal and blocks until it quits.
func Run(g *seedgraph.Graph, v *session.View) error {
	_, err := tea.NewProgram(New(g, v)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.input.Reset()
			m.view.ClearSearch()
			m.err = nil
			return m, nil
		case tea.KeyUp:
			return m.key(search.KeyUp), nil
		case tea.KeyDown:
			return m.key(search.KeyDown), nil
		case tea.KeyEnter:
			return m.key(search.KeyEnter), nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m.key(search.KeyOther), cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) key(k search.Key) Model {
	_, m.err = m.view.Key(k, m.input.Value())
	return m
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	fills := m.view.Fills()
	res, cursor := m.view.Result()
	for i, name := range res.Shown {
		line := "  " + m.name(name, fills)
		if i == cursor {
			line = activeStyle.Render("> " + truncate(name))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if more := len(res.Matches) - len(res.Shown); more > 0 {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  and %d more", more)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.infobox(fills))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("up/down: move  enter: select  esc: clear  ctrl+c: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) infobox(fills map[string]string) string {
	info := m.view.Infobox()
	if !info.Visible {
		return titleStyle.Render(info.Title) + "\n"
	}

	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(m.name(info.Title, fills)))
	fmt.Fprintf(&b, "Tool URL: %s\n", info.ToolText())
	fmt.Fprintf(&b, "Parents: %s\n", m.names(info.Parents, fills))
	fmt.Fprintf(&b, "Children: %s\n", m.names(info.Children, fills))
	fmt.Fprintf(&b, "Coverage info: %s\n", info.Coverage)
	fmt.Fprintf(&b, "Found time: %s\n", info.FoundText())
	fmt.Fprintf(&b, "Time since parent: %s\n", info.DeltaText())
	fmt.Fprintf(&b, "Mutation: %s\n", info.Mutation)
	fmt.Fprintf(&b, "Mutation delta: %s\n", info.MutationDeltaURL)

	var chain []string
	for _, s := range m.graph.Seeds {
		if fills[s.Name] == session.FillAncestor && s.Name != info.Title {
			chain = append(chain, s.Name)
		}
	}
	fmt.Fprintf(&b, "Ancestors: %s\n", m.names(chain, fills))
	return b.String()
}

func (m Model) names(names []string, fills map[string]string) string {
	if len(names) == 0 {
		return subtleStyle.Render("none")
	}

	rendered := make([]string, len(names))
	for i, name := range names {
		rendered[i] = m.name(name, fills)
	}
	return strings.Join(rendered, ", ")
}

func (m Model) name(name string, fills map[string]string) string {
	switch fills[name] {
	case session.FillAncestor:
		return redStyle.Render(truncate(name))
	case session.FillCrash:
		return greenStyle.Render(truncate(name))
	}
	return truncate(name)
}

func truncate(name string) string {
	return runewidth.Truncate(name, maxNameWidth, "…")
}
