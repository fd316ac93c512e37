package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mirrorbook/pkg/app/screens"
	"github.com/kerbaras/mirrorbook/pkg/services"
)

type App struct {
	pipeline *services.Pipeline
}

func NewApp(pipeline *services.Pipeline) *App {
	return &App{pipeline: pipeline}
}

// Run builds the book while rendering pipeline progress in the terminal
func (a *App) Run(ctx context.Context) (*services.Result, error) {
	screen := screens.NewBuildScreen(ctx, a.pipeline.Build, a.pipeline.GetProgressChannel())
	p := tea.NewProgram(screen)
	model, err := p.Run()
	if err != nil {
		return nil, err
	}

	final := model.(*screens.BuildScreen)
	return final.Result(), final.Err()
}
