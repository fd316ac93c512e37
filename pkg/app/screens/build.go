package screens

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mirrorbook/pkg/app/components"
	"github.com/kerbaras/mirrorbook/pkg/app/styles"
	"github.com/kerbaras/mirrorbook/pkg/services"
)

// BuildFunc runs the pipeline to completion
type BuildFunc func(ctx context.Context) (*services.Result, error)

// BuildScreen follows a pipeline run and quits once it finishes
type BuildScreen struct {
	ctx      context.Context
	cancel   context.CancelFunc
	build    BuildFunc
	progress <-chan services.Progress
	tracker  *components.ProgressTracker

	result *services.Result
	err    error
	done   bool

	width  int
	height int
}

func NewBuildScreen(ctx context.Context, build BuildFunc, progress <-chan services.Progress) *BuildScreen {
	ctx, cancel := context.WithCancel(ctx)
	return &BuildScreen{
		ctx:      ctx,
		cancel:   cancel,
		build:    build,
		progress: progress,
		tracker:  components.NewProgressTracker(80),
		width:    80,
	}
}

// Result returns the staged result of a finished run
func (s *BuildScreen) Result() *services.Result {
	return s.result
}

// Err returns why the run did not finish
func (s *BuildScreen) Err() error {
	return s.err
}

func (s *BuildScreen) Init() tea.Cmd {
	return tea.Batch(s.runBuild, s.waitForProgress)
}

func (s *BuildScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.tracker.SetWidth(msg.Width)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			s.cancel()
			if !s.done {
				s.err = context.Canceled
			}
			return s, tea.Quit
		}

	case progressMsg:
		if !msg.ok {
			return s, nil
		}
		s.tracker.Update(msg.progress)
		return s, s.waitForProgress

	case buildDoneMsg:
		s.done = true
		s.result = msg.result
		s.err = msg.err
		s.cancel()
		return s, tea.Quit
	}

	return s, nil
}

func (s *BuildScreen) View() string {
	header := styles.TitleStyle.Render("mirrorbook")

	var footer string
	switch {
	case s.done && s.err != nil:
		footer = styles.StatusError.Render(fmt.Sprintf("Build failed: %s", s.err))
	case s.done:
		footer = styles.StatusCompleted.Render(fmt.Sprintf("Staged %d document(s) in %s", len(s.result.Documents), s.result.StageDir))
	default:
		footer = styles.HelpStyle.Render("q: cancel")
	}

	return fmt.Sprintf("%s\n%s\n%s\n", header, s.tracker.View(), footer)
}

type progressMsg struct {
	progress services.Progress
	ok       bool
}

type buildDoneMsg struct {
	result *services.Result
	err    error
}

func (s *BuildScreen) runBuild() tea.Msg {
	result, err := s.build(s.ctx)
	return buildDoneMsg{result: result, err: err}
}

func (s *BuildScreen) waitForProgress() tea.Msg {
	select {
	case progress, ok := <-s.progress:
		return progressMsg{progress: progress, ok: ok}
	case <-s.ctx.Done():
		return progressMsg{}
	}
}
