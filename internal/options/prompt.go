package options

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	promptTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	promptKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	promptMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const promptTitle = "Select download quality"

// LinePrompter prints the menu to Out and reads a single line from In.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p LinePrompter) Prompt(choices []Choice) (string, error) {
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintln(out, promptTitle+":")
	for _, c := range choices {
		fmt.Fprintf(out, "  %s) %s\n", c.Key, c.Label)
	}
	fmt.Fprint(out, "Choice [1]: ")

	if p.In == nil {
		fmt.Fprintln(out)
		return "", nil
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read prompt input: %w", err)
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(out)
	}
	return strings.TrimSpace(line), nil
}

// TerminalPrompter renders the menu as a small bubbletea program.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TerminalPrompter) Prompt(choices []Choice) (string, error) {
	opts := []tea.ProgramOption{}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}
	final, err := tea.NewProgram(newPromptModel(choices), opts...).Run()
	if err != nil {
		return "", fmt.Errorf("run quality prompt: %w", err)
	}
	m, ok := final.(promptModel)
	if !ok || m.cancelled {
		return "", nil
	}
	return strings.TrimSpace(m.input.Value()), nil
}

// NewPrompter picks the bubbletea prompt when stdin is a terminal and the
// plain line reader otherwise.
func NewPrompter() Prompter {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return TerminalPrompter{In: os.Stdin, Out: os.Stderr}
	}
	return LinePrompter{In: os.Stdin, Out: os.Stderr}
}

type promptModel struct {
	choices   []Choice
	input     textinput.Model
	done      bool
	cancelled bool
}

func newPromptModel(choices []Choice) promptModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "1"
	input.CharLimit = 16
	input.Width = 16
	input.Focus()
	return promptModel{choices: choices, input: input}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render(promptTitle))
	b.WriteString("\n")
	for _, c := range m.choices {
		b.WriteString("  ")
		b.WriteString(promptKeyStyle.Render(c.Key + ")"))
		b.WriteString(" ")
		b.WriteString(c.Label)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(promptMutedStyle.Render("enter to confirm, esc for default"))
	b.WriteString("\n")
	return b.String()
}
