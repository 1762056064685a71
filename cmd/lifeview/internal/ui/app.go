// Package ui provides the Bubble Tea front end for lifeview. It renders
// exclusively from VisualState flags: the model never inspects raw
// errors or lifecycle internals to decide what to draw, which is the
// whole point of the demo.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nextcore/livequery/cmd/lifeview/internal/sim"
	"github.com/nextcore/livequery/pkg/lifecycle"
)

// snapshotMsg carries a published VisualState into the Bubble Tea loop.
type snapshotMsg lifecycle.VisualState[[]sim.Row]

// Model is the root Bubble Tea model.
type Model struct {
	coord   *lifecycle.Coordinator[[]sim.Row]
	updates chan lifecycle.VisualState[[]sim.Row]

	styles   Styles
	spinner  spinner.Model
	snapshot lifecycle.VisualState[[]sim.Row]
	width    int
	height   int
	quitting bool
}

// NewModel builds the UI model around a coordinator. updates is the
// channel its subscription pushes snapshots into.
func NewModel(coord *lifecycle.Coordinator[[]sim.Row], updates chan lifecycle.VisualState[[]sim.Row]) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	return Model{
		coord:    coord,
		updates:  updates,
		styles:   DefaultStyles(),
		spinner:  sp,
		snapshot: coord.VisualState(),
	}
}

// Push conflates a snapshot into an updates channel without ever
// blocking the coordinator: when the channel is full the oldest pending
// snapshot is dropped in favor of the new one.
func Push(ch chan lifecycle.VisualState[[]sim.Row], v lifecycle.VisualState[[]sim.Row]) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot())
}

func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.updates)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.coord.Destroy()
			return m, tea.Quit
		case "r":
			m.coord.Refresh()
			return m, nil
		}
		return m, nil

	case snapshotMsg:
		m.snapshot = lifecycle.VisualState[[]sim.Row](msg)
		return m, m.waitForSnapshot()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	v := m.snapshot

	b.WriteString(m.styles.Header.Render("lifeview"))
	b.WriteString("  ")
	b.WriteString(m.styles.StateBadge.Render(v.State.String()))
	b.WriteString("\n\n")

	switch {
	case v.ShouldShowSkeleton:
		b.WriteString(m.renderSkeleton())
	case v.ShouldShowError:
		b.WriteString(m.renderError())
	case v.ShouldShowEmpty:
		b.WriteString(m.styles.Empty.Render("No records yet. Press r to refresh."))
		b.WriteString("\n")
	case v.ShouldShowData:
		b.WriteString(m.renderRows(*v.DisplayData))
	}

	if v.ShouldShowSubtleLoader {
		b.WriteString("\n")
		b.WriteString(m.styles.SubtleLoader.Render(m.spinner.View() + " refreshing…"))
		b.WriteString("\n")
	}

	// Non-blocking error affordance: the coordinator is in its error
	// lifecycle state but stale data is still on screen.
	if v.State == lifecycle.StateError && !v.ShouldShowError {
		b.WriteString("\n")
		b.WriteString(m.styles.Toast.Render(fmt.Sprintf("⚠ refresh failed: %v (showing last good data)", m.coord.Err())))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSkeleton() string {
	var b strings.Builder
	bar := m.spinner.View() + " loading"
	b.WriteString(m.styles.SubtleLoader.Render(bar))
	b.WriteString("\n\n")
	for i := 0; i < 4; i++ {
		b.WriteString(m.styles.Skeleton.Render(strings.Repeat("▒", 38-i*4)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderError() string {
	msg := "something went wrong"
	if err := m.coord.Err(); err != nil {
		msg = err.Error()
	}
	return m.styles.ErrorView.Render(msg+"\n\npress r to retry") + "\n"
}

func (m Model) renderRows(rows []sim.Row) string {
	var b strings.Builder
	for _, row := range rows {
		status := m.styles.Muted
		if s, ok := m.styles.RowStatus[row.Status]; ok {
			status = s
		}
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			m.styles.RowTitle.Render(fmt.Sprintf("%-24s", row.Title)),
			status.Render(row.Status)))
	}
	if !m.snapshot.IsFresh {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  last updated %s", m.coord.LastUpdated().Format("15:04:05"))))
		b.WriteString("\n")
	}
	return b.String()
}
