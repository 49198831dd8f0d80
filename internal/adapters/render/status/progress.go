package status

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type taskDoneMsg struct {
	err error
}

// progressModel keeps a spinner and the elapsed time on screen until the
// task reports back.
type progressModel struct {
	spinner spinner.Model
	styles  styles
	label   string
	task    tea.Cmd
	started time.Time
	now     func() time.Time
	err     error
	done    bool
}

func newProgressModel(label string, task tea.Cmd, now func() time.Time) progressModel {
	st := newStyles()

	return progressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(st.spinner)),
		styles:  st,
		label:   label,
		task:    task,
		started: now(),
		now:     now,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.task)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	elapsed := m.now().Sub(m.started).Truncate(time.Second)
	return fmt.Sprintf("%s %s %s\n",
		m.spinner.View(),
		m.styles.detail.Render(m.label),
		m.styles.empty.Render(elapsed.String()),
	)
}

// RunWithProgress shows label on output while task runs and returns the
// task's error. A cancelled ctx ends the display with ctx's error.
func RunWithProgress(ctx context.Context, output io.Writer, label string, task func(context.Context) error) error {
	taskCmd := func() tea.Msg {
		return taskDoneMsg{err: task(ctx)}
	}

	p := tea.NewProgram(
		newProgressModel(label, taskCmd, time.Now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	result, ok := finalModel.(progressModel)
	if !ok {
		return ErrUnexpectedRenderModel
	}

	return result.err
}
