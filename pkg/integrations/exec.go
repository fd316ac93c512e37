package integrations

import (
	"context"
	"os/exec"
)

// ExecPackager runs an external tool such as pandoc
type ExecPackager struct{}

// NewExecPackager creates an ExecPackager
func NewExecPackager() *ExecPackager {
	return &ExecPackager{}
}

// Package runs inv with stageDir as working directory. A non-zero exit is
// a PackagingError carrying the tool's output.
func (p *ExecPackager) Package(ctx context.Context, stageDir string, inv Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Command, inv.Args()...)
	cmd.Dir = stageDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &PackagingError{Command: inv.String(), Output: string(out), Err: err}
	}
	return nil
}
