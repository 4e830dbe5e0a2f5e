package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/importer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var (
	bundleStates = []xpuinterop.BundleState{xpuinterop.StateInput, xpuinterop.StateObject, xpuinterop.StateExecutable}
	binaryTypes  = []dispatch.ProgramBinaryType{
		dispatch.BinaryNone, dispatch.BinaryCompiledObject, dispatch.BinaryLibrary, dispatch.BinaryExecutable,
	}
	cleanups = []importer.CleanupPolicy{importer.CleanupRelease, importer.CleanupNone}
)

// setting is one row of the option list. step moves the value by delta.
type setting struct {
	name  string
	value func(o *options) string
	step  func(o *options, delta int)
}

var settings = []setting{
	{
		name:  "backend",
		value: func(o *options) string { return o.kind.String() },
		step: func(o *options, d int) {
			kinds := backend.SupportedKinds()
			o.kind = kinds[cycle(indexOf(kinds, o.kind), d, len(kinds))]
		},
	},
	{
		name:  "state",
		value: func(o *options) string { return o.state.String() },
		step: func(o *options, d int) {
			o.state = bundleStates[cycle(indexOf(bundleStates, o.state), d, len(bundleStates))]
		},
	},
	{
		name: "initial",
		value: func(o *options) string {
			if len(o.initial) == 0 {
				return dispatch.BinaryNone.String()
			}
			return o.initial[0].String()
		},
		step: func(o *options, d int) {
			cur := dispatch.BinaryNone
			if len(o.initial) > 0 {
				cur = o.initial[0]
			}
			o.initial = []dispatch.ProgramBinaryType{binaryTypes[cycle(indexOf(binaryTypes, cur), d, len(binaryTypes))]}
		},
	},
	{
		name:  "devices",
		value: func(o *options) string { return fmt.Sprintf("%d", o.devices) },
		step: func(o *options, d int) {
			o.devices = cycle(o.devices-1, d, 8) + 1
		},
	},
	{
		name:  "keep ownership",
		value: func(o *options) string { return fmt.Sprintf("%v", o.keep) },
		step:  func(o *options, _ int) { o.keep = !o.keep },
	},
	{
		name:  "legacy driver",
		value: func(o *options) string { return fmt.Sprintf("%v", o.legacy) },
		step:  func(o *options, _ int) { o.legacy = !o.legacy },
	},
	{
		name:  "cleanup",
		value: func(o *options) string { return o.cleanup.String() },
		step: func(o *options, d int) {
			o.cleanup = cleanups[cycle(indexOf(cleanups, o.cleanup), d, len(cleanups))]
		},
	},
}

func indexOf[T comparable](vs []T, v T) int {
	for i, x := range vs {
		if x == v {
			return i
		}
	}
	return 0
}

func cycle(i, delta, n int) int {
	return ((i+delta)%n + n) % n
}

type interactiveModel struct {
	err      error
	report   *report
	inputs   []textinput.Model
	spinner  spinner.Model
	opts     options
	selected int
	state    modelState
}

type modelState int

const (
	stateEdit modelState = iota
	stateRunning
	stateShowResult
)

type importResultMsg struct {
	err    error
	report *report
}

func newInteractiveModel(opts options) *interactiveModel {
	kernel := textinput.New()
	kernel.Prompt = "kernel: "
	kernel.Placeholder = "add"
	kernel.SetValue(opts.kernel)
	kernel.Width = 40

	args := textinput.New()
	args.Prompt = "args: "
	args.Placeholder = "2,3"
	args.SetValue(joinUints(opts.args))
	args.Width = 40

	if opts.devices <= 0 {
		opts.devices = 1
	}
	if !opts.kind.Supported() {
		opts.kind = backend.OpenCL
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = funcStyle

	return &interactiveModel{
		opts:    opts,
		inputs:  []textinput.Model{kernel, args},
		spinner: sp,
		state:   stateEdit,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

// inputIndex returns the focused text input, or -1 when a setting is selected.
func (m *interactiveModel) inputIndex() int {
	if m.selected < len(settings) {
		return -1
	}
	return m.selected - len(settings)
}

func (m *interactiveModel) focus() {
	for i := range m.inputs {
		if i == m.inputIndex() {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || (key == "q" && m.inputIndex() < 0) {
			return m, tea.Quit
		}

		switch m.state {
		case stateShowResult:
			if key == "enter" || key == "esc" {
				m.state = stateEdit
				m.report = nil
				m.err = nil
			}
			return m, nil

		case stateRunning:
			return m, nil
		}

		switch key {
		case "up", "shift+tab":
			if m.selected > 0 {
				m.selected--
				m.focus()
			}
			return m, nil

		case "down", "tab":
			if m.selected < len(settings)+len(m.inputs)-1 {
				m.selected++
				m.focus()
			}
			return m, nil

		case "left", "right", " ":
			if m.inputIndex() < 0 {
				delta := 1
				if key == "left" {
					delta = -1
				}
				settings[m.selected].step(&m.opts, delta)
				return m, nil
			}

		case "enter":
			m.state = stateRunning
			return m, tea.Batch(m.runImport, m.spinner.Tick)
		}

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case importResultMsg:
		m.report = msg.report
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if i := m.inputIndex(); i >= 0 {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) runImport() tea.Msg {
	opts := m.opts
	opts.kernel = strings.TrimSpace(m.inputs[0].Value())
	args, err := parseArgs(m.inputs[1].Value())
	if err != nil {
		return importResultMsg{err: err}
	}
	opts.args = args

	rep, err := runImport(context.Background(), opts)
	return importResultMsg{report: rep, err: err}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("XPU Interop Import"))
	b.WriteString("\n\n")

	switch m.state {
	case stateEdit, stateRunning:
		fmt.Fprintf(&b, "Program: %s\n\n", funcStyle.Render(m.opts.source))
		for i, s := range settings {
			if i == m.selected {
				b.WriteString(selectedStyle.Render(fmt.Sprintf("> %-16s %s", s.name, s.value(&m.opts))))
			} else {
				fmt.Fprintf(&b, "  %-16s %s", s.name, typeStyle.Render(s.value(&m.opts)))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		for _, in := range m.inputs {
			b.WriteString("  " + in.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateRunning {
			b.WriteString(m.spinner.View() + helpStyle.Render(" importing..."))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • ←/→ change • enter import • q quit"))
		}

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(renderReport(m.report, true))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(opts options) error {
	p := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
