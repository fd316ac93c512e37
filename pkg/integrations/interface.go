// Package integrations hands a staged book to a packaging backend.
package integrations

import (
	"context"
	"fmt"
	"strings"
)

// Invocation is the packaging command for a staged book. Paths inside the
// staging directory are relative to it; the packager runs there.
type Invocation struct {
	Command   string
	Artifact  string
	Metadata  string
	Cover     string
	Documents []string
}

// Args returns the command line arguments, pandoc style
func (inv Invocation) Args() []string {
	args := []string{"-o", inv.Artifact}
	if inv.Cover != "" {
		args = append(args, "--epub-cover-image="+inv.Cover)
	}
	if inv.Metadata != "" {
		args = append(args, inv.Metadata)
	}
	return append(args, inv.Documents...)
}

// String renders the command for manual execution
func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Command}, inv.Args()...), " ")
}

// Packager turns a staging directory into the final artifact
type Packager interface {
	Package(ctx context.Context, stageDir string, inv Invocation) error
}

// PackagingError reports a failed packaging step
type PackagingError struct {
	Command string
	Output  string
	Err     error
}

func (e *PackagingError) Error() string {
	msg := fmt.Sprintf("packaging failed (%s): %v", e.Command, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *PackagingError) Unwrap() error {
	return e.Err
}
