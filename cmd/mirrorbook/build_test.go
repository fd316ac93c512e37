package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/kerbaras/mirrorbook/pkg/services"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuildFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "build"}
	addBuildFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestApplyBuildFlagsKeepsConfigWhenUnset(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Book.Strategy = config.StrategyChapters

	require.NoError(t, applyBuildFlags(newBuildFlags(t), cfg))

	assert.Equal(t, config.StrategyChapters, cfg.Book.Strategy)
	assert.True(t, cfg.Package.Strict)
	assert.Equal(t, config.BackendExec, cfg.Package.Backend)
}

func TestApplyBuildFlagsOverrides(t *testing.T) {
	cfg := config.DefaultConfig()

	cmd := newBuildFlags(t, "--strategy", "chapters", "--strict=false", "--backend", "epub")
	require.NoError(t, applyBuildFlags(cmd, cfg))

	assert.Equal(t, config.StrategyChapters, cfg.Book.Strategy)
	assert.False(t, cfg.Package.Strict)
	assert.Equal(t, config.BackendEPub, cfg.Package.Backend)
}

func TestApplyBuildFlagsValidates(t *testing.T) {
	cfg := config.DefaultConfig()

	err := applyBuildFlags(newBuildFlags(t, "--strategy", "weekly"), cfg)
	assert.Error(t, err)
}

func TestFollowProgressDrainsBeforeDone(t *testing.T) {
	progress := make(chan services.Progress, 4)
	var out bytes.Buffer

	done := followProgress(&out, progress)
	progress <- services.Progress{Stage: services.StageMirror, Current: 1, Total: 3, Status: "downloading", URL: "https://site/a"}
	progress <- services.Progress{Stage: services.StageAssemble, Status: "error", Error: errors.New("missing region")}
	close(progress)
	<-done

	assert.Contains(t, out.String(), "mirror 1/3: https://site/a")
	assert.Contains(t, out.String(), "❌ assemble: missing region")
}
