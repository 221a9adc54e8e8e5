package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	require.NoError(t, rootCmd.PersistentFlags().Set("config", ""))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimplifyCommand(t *testing.T) {
	out, err := run(t, "", "simplify", `{"type":"func","name":"sqrt","args":[{"type":"num","value":"8"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "2*sqrt(2)\n", out)
}

func TestSimplifyCommand_Stdin(t *testing.T) {
	in := `{"type":"pow","left":{"type":"num","value":"10"},"right":{"type":"num","value":"10000"}}`
	out, err := run(t, in, "simplify", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "10^10000")
	assert.Contains(t, out, "guard tripped: exponent")
}

func TestDiffCommand_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expr.json")
	expr := `{"type":"func","name":"sin","args":[{"type":"sym","name":"x"}]}`
	require.NoError(t, os.WriteFile(path, []byte(expr), 0o644))

	out, err := run(t, "", "diff", "--var", "x", path)
	require.NoError(t, err)
	assert.Equal(t, "cos(x)\n", out)
}

func TestSimplifyCommand_WithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enable_radical_rules: false\n"), 0o644))

	out, err := run(t, "", "--config", path, "simplify", `{"type":"func","name":"sqrt","args":[{"type":"num","value":"8"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "sqrt(8)\n", out)
}

func TestSimplifyCommand_Malformed(t *testing.T) {
	_, err := run(t, "", "simplify", `{"type":"wat"}`)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "symcore version")
}
