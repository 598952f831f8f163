package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/claude/liftlog/internal/training"
	"github.com/spf13/cobra"
)

// Colors for the liftctl TUI.
const (
	colorAccent  = "#F97316"
	colorDone    = "#22C55E"
	colorMuted   = "240"
	colorPrimary = "#E6EAF2"
)

const barWidth = 30

func newTimerCommand() *cobra.Command {
	var presetSec int
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run a rest timer between sets",
		Long: `Counts down the rest between sets. Keys: space start/pause, r reset,
1-4 pick a preset, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := newTimerModel(time.Duration(presetSec) * time.Second)
			_, err := tea.NewProgram(m, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout())).Run()
			return err
		},
	}
	cmd.Flags().IntVar(&presetSec, "preset", int(training.DefaultRestPreset/time.Second), "rest length in seconds")
	return cmd
}

// timerTickMsg is sent every second while the program runs.
type timerTickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return timerTickMsg{} })
}

// timerModel is the bubbletea model around a training.RestTimer.
type timerModel struct {
	timer *training.RestTimer
	// finished is set when the countdown reaches zero and cleared on the next start.
	finished bool
	quitting bool
}

func newTimerModel(preset time.Duration) timerModel {
	t := training.NewRestTimer(preset)
	t.Toggle()
	return timerModel{timer: t}
}

func (m timerModel) Init() tea.Cmd {
	return tick()
}

func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		if m.timer.Tick() {
			m.finished = true
		}
		if m.quitting {
			return m, nil
		}
		return m, tick()

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case " ", "enter":
			m.finished = false
			m.timer.Toggle()
		case "r":
			m.finished = false
			m.timer.Reset()
		case "1", "2", "3", "4":
			i := int(key[0] - '1')
			if i < len(training.RestTimerPresets) {
				m.finished = false
				m.timer.Select(training.RestTimerPresets[i])
			}
		}
	}
	return m, nil
}

func (m timerModel) View() string {
	if m.quitting {
		return ""
	}

	clock := lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary)).Bold(true)
	status := "paused"
	switch {
	case m.finished:
		clock = clock.Foreground(lipgloss.Color(colorDone))
		status = "rest over, next set!"
	case m.timer.Running():
		clock = clock.Foreground(lipgloss.Color(colorAccent))
		status = "resting"
	}

	filled := int(m.timer.Progress()*barWidth + 0.5)
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Render(strings.Repeat("░", barWidth-filled))

	presets := make([]string, len(training.RestTimerPresets))
	for i, p := range training.RestTimerPresets {
		label := fmt.Sprintf("%d %s", i+1, training.FormatTime(int(p/time.Second)))
		if p == m.timer.Preset() {
			label = highlight.Render(label)
		}
		presets[i] = label
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).
		Render("space start/pause · r reset · 1-4 preset · q quit")

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s  %s\n\n", clock.Render(m.timer.String()), status)
	fmt.Fprintf(&b, "  %s\n\n", bar)
	fmt.Fprintf(&b, "  %s\n\n", strings.Join(presets, "   "))
	fmt.Fprintf(&b, "  %s\n", help)
	if m.finished {
		b.WriteString("\a")
	}
	return b.String()
}
