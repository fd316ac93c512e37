package components

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mirrorbook/pkg/app/styles"
	"github.com/kerbaras/mirrorbook/pkg/services"
)

var stageOrder = []string{
	services.StageIndex,
	services.StageMirror,
	services.StageAssemble,
	services.StagePackage,
}

// ProgressTracker keeps the latest event of every pipeline stage
type ProgressTracker struct {
	stages map[string]*services.Progress
	width  int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		stages: make(map[string]*services.Progress),
		width:  width,
	}
}

// Update records progress, replacing the previous event of its stage. A
// stage that moves on marks every earlier stage complete.
func (p *ProgressTracker) Update(progress services.Progress) {
	prog := progress
	p.stages[progress.Stage] = &prog

	if progress.Status == "error" {
		return
	}
	for _, stage := range stageOrder {
		if stage == progress.Stage {
			break
		}
		if prev, ok := p.stages[stage]; ok && prev.Status != "error" {
			prev.Status = "complete"
			if prev.Total > 0 {
				prev.Current = prev.Total
			}
		}
	}
}

func (p *ProgressTracker) SetWidth(width int) {
	p.width = width
}

func (p *ProgressTracker) Clear() {
	p.stages = make(map[string]*services.Progress)
}

func (p *ProgressTracker) HasActive() bool {
	return len(p.stages) > 0
}

// Failed returns the first stage error seen, if any
func (p *ProgressTracker) Failed() error {
	for _, stage := range stageOrder {
		if prog, ok := p.stages[stage]; ok && prog.Error != nil {
			return prog.Error
		}
	}
	return nil
}

func (p *ProgressTracker) View() string {
	if len(p.stages) == 0 {
		return styles.MutedStyle.Render("Waiting for the pipeline to start...")
	}

	var b strings.Builder
	for _, stage := range stageOrder {
		progress, ok := p.stages[stage]
		if !ok {
			continue
		}

		statusText := progress.Status
		if progress.Total > 0 {
			statusText = fmt.Sprintf("%s (%d/%d)", progress.Status, progress.Current, progress.Total)
		}
		b.WriteString(styles.StageStyle.Render(stage))
		b.WriteString(styles.StatusStyle(progress.Status).Render(statusText))
		b.WriteString("\n")

		if progress.Total > 0 {
			b.WriteString(renderProgressBar(progress.Current, progress.Total, p.width-4))
			b.WriteString("\n")
		}
		if progress.URL != "" && progress.Status != "complete" {
			b.WriteString(styles.MutedStyle.Render(truncateString(progress.URL, p.width-4)))
			b.WriteString("\n")
		}
		if progress.Error != nil {
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", progress.Error)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	return styles.ProgressBarStyle.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func truncateString(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
