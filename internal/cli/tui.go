package cli

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/observability"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/pipeline"
)

const progressWidth = 40

var progressDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// Messages
// =============================================================================

type progressMsg struct{ placed, target int }

type doneMsg struct {
	res *pipeline.Result
	err error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// =============================================================================
// Rejection Hooks
// =============================================================================

// rejectionCounter counts rejected draws for the progress view. Rejections
// are far too frequent to send each one through the program.
type rejectionCounter struct {
	observability.NoopPlacementHooks
	n atomic.Int64
}

func (r *rejectionCounter) OnRejection(context.Context, string) { r.n.Add(1) }

// =============================================================================
// PlaceModel - Live placement progress
// =============================================================================

// PlaceModel is the bubbletea model showing placement progress.
type PlaceModel struct {
	Placed, Target int
	Start          time.Time
	Now            time.Time
	Quitting       bool

	rejected *rejectionCounter
	cancel   context.CancelFunc
	res      *pipeline.Result
	err      error
}

func (m PlaceModel) Init() tea.Cmd {
	return tick()
}

func (m PlaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// The run notices cancellation between cells and reports back
			// through doneMsg.
			m.Quitting = true
			m.cancel()
		}
	case progressMsg:
		m.Placed, m.Target = msg.placed, msg.target
	case tickMsg:
		m.Now = time.Time(msg)
		return m, tick()
	case doneMsg:
		m.res, m.err = msg.res, msg.err
		if msg.res != nil {
			m.Placed, m.Target = msg.res.Summary.Cells, msg.res.Target
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m PlaceModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Placing somata"))
	b.WriteString("\n\n")
	b.WriteString(progressBar(m.Placed, m.Target, progressWidth))
	fmt.Fprintf(&b, "  %s / %s cells\n",
		StyleNumber.Render(fmt.Sprint(m.Placed)), StyleValue.Render(fmt.Sprint(m.Target)))

	elapsed := m.Now.Sub(m.Start).Round(100 * time.Millisecond)
	if elapsed < 0 {
		elapsed = 0
	}
	var rejected int64
	if m.rejected != nil {
		rejected = m.rejected.n.Load()
	}
	b.WriteString(progressDimStyle.Render(fmt.Sprintf("%s elapsed · %d rejected draws", elapsed, rejected)))
	b.WriteString("\n")

	if m.Quitting {
		b.WriteString(StyleWarning.Render("stopping…"))
	} else {
		b.WriteString(progressDimStyle.Render("q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// runWithProgress executes the pipeline while a bubbletea program renders
// progress. Informational logs are suppressed for the duration.
func runWithProgress(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	counter := &rejectionCounter{}
	now := time.Now()
	p := tea.NewProgram(PlaceModel{Start: now, Now: now, rejected: counter, cancel: cancel})

	opts.Logger = quietLogger(opts.Logger)
	opts.Hooks = counter
	opts.Progress = func(placed, target int) {
		p.Send(progressMsg{placed: placed, target: target})
	}

	done := make(chan doneMsg, 1)
	go func() {
		res, err := runner.Execute(ctx, opts)
		done <- doneMsg{res: res, err: err}
		p.Send(doneMsg{res: res, err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	msg := <-done
	return msg.res, msg.err
}
