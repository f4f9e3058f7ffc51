//go:build unit

package controllers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

type flagged interface {
	AddFlags(cmd *cobra.Command)
}

// newCommand builds a command carrying the root persistent flags and the
// controller's own flags, pointed at a fresh config in a temp workspace.
func newCommand(t *testing.T, controller any, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	workspace := t.TempDir()
	configPath := filepath.Join(workspace, "sitedeploy.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("workspace: .\npolicy:\n  changes_threshold: 7\n"), 0o600))

	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().StringP("config", "c", "", "")
	cmd.PersistentFlags().Bool("dry-run", false, "")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "")
	if fc, ok := controller.(flagged); ok {
		fc.AddFlags(cmd)
	}
	require.NoError(t, cmd.ParseFlags(append([]string{"--config", configPath}, args...)))

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}
