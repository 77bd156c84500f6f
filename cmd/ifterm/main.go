// Command ifterm is a terminal Z-machine player: a bubbletea program that
// drives zmachine.VM's Step/Resume coroutine loop, rendering output
// through lipgloss styling and reflow word-wrapping and collecting input
// through a bubbles text field.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/avocet-labs/ifvm/zmachine"
)

var (
	romFilePath string
	savePath    string

	appStyle = lipgloss.NewStyle().Padding(1, 2)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFDF5")).
		Background(lipgloss.Color("#25A065")).
		Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5F5F"))
)

func init() {
	flag.StringVar(&romFilePath, "rom", "", "path of a Z-machine story file")
	flag.StringVar(&savePath, "save", "", "path to use for save/restore (defaults to <rom>.qzl)")
	flag.Parse()
}

type stepMsg struct {
	result zmachine.StepResult
	err    error
}

type model struct {
	vm         *zmachine.VM
	transcript strings.Builder
	input      textinput.Model
	width      int
	height     int

	waitingFor zmachine.Kind
	status     *zmachine.StatusLine
	quit       bool
	fatalErr   error
}

func newModel(vm *zmachine.VM) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 70
	return model{vm: vm, input: ti, width: 80, height: 24}
}

func (m model) Init() tea.Cmd {
	return stepCmd(m.vm, nil)
}

func stepCmd(vm *zmachine.VM, resume *zmachine.ResumeValue) tea.Cmd {
	return func() tea.Msg {
		result, err := vm.Step(resume)
		return stepMsg{result: result, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = m.width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submitLine()
		}
		if m.waitingFor == zmachine.KindNeedChar {
			return m.submitChar(msg)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case stepMsg:
		return m.handleStep(msg)
	}
	return m, nil
}

func (m model) submitLine() (tea.Model, tea.Cmd) {
	if m.waitingFor != zmachine.KindNeedLine {
		return m, nil
	}
	line := m.input.Value()
	m.transcript.WriteString("> " + line + "\n")
	m.input.SetValue("")
	m.waitingFor = 0
	return m, stepCmd(m.vm, &zmachine.ResumeValue{Line: line})
}

func (m model) submitChar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	runes := msg.Runes
	if len(runes) == 0 {
		return m, nil
	}
	m.waitingFor = 0
	return m, stepCmd(m.vm, &zmachine.ResumeValue{Char: byte(runes[0])})
}

func (m model) handleStep(msg stepMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.fatalErr = msg.err
		return m, tea.Quit
	}

	for _, e := range msg.result.Output {
		m.transcript.WriteString(e.Text)
	}

	switch msg.result.Kind {
	case zmachine.KindDone:
		m.quit = true
		m.fatalErr = msg.result.Err
		return m, tea.Quit

	case zmachine.KindNeedLine:
		m.waitingFor = zmachine.KindNeedLine
		m.status = msg.result.Status
		return m, nil

	case zmachine.KindNeedChar:
		m.waitingFor = zmachine.KindNeedChar
		return m, nil

	case zmachine.KindSave:
		err := os.WriteFile(saveFilePath(), msg.result.SaveBytes, 0644)
		return m, stepCmd(m.vm, &zmachine.ResumeValue{SaveOK: err == nil})

	case zmachine.KindRestore:
		data, _ := os.ReadFile(saveFilePath())
		return m, stepCmd(m.vm, &zmachine.ResumeValue{RestoreBytes: data})
	}
	return m, nil
}

func saveFilePath() string {
	if savePath != "" {
		return savePath
	}
	return romFilePath + ".qzl"
}

func (m model) View() string {
	var b strings.Builder

	if m.status != nil {
		b.WriteString(statusBarStyle.Render(fmt.Sprintf("%-40s Score: %-5d Turns: %-5d", m.status.RoomName, m.status.Score, m.status.Turns)))
		b.WriteString("\n")
	}

	wrapped := wordwrap.String(m.transcript.String(), max(m.width-4, 20))
	b.WriteString(wrapped)

	if m.fatalErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.fatalErr.Error()))
	}

	if m.waitingFor == zmachine.KindNeedLine {
		b.WriteString("\n")
		b.WriteString(m.input.View())
	} else if m.waitingFor == zmachine.KindNeedChar {
		b.WriteString("\n[press any key]")
	}

	return appStyle.Render(b.String())
}

func main() {
	if romFilePath == "" {
		fmt.Println("usage: ifterm -rom <story-file>")
		os.Exit(1)
	}

	storyBytes, err := os.ReadFile(romFilePath)
	if err != nil {
		fmt.Printf("failed to read story file: %v\n", err)
		os.Exit(1)
	}

	vm, err := zmachine.New(storyBytes, zmachine.Options{
		StatusCapable: true,
		UndoSupported: true,
		UndoLimit:     10,
		ColourCapable: true,
	})
	if err != nil {
		fmt.Printf("failed to load story: %v\n", err)
		os.Exit(1)
	}

	program := tea.NewProgram(newModel(vm), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Println("error running program:", err)
		os.Exit(1)
	}
}
