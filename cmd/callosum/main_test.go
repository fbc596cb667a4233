package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const ada = `personality "Ada" {
  traits { curiosity: 0.8 with decay(0/month); patience: 0.6 }
  behaviors { when tired -> prefer "short answers" }
}`

// run executes the command line with stdin and returns stdout and stderr.
// The config file points into a temporary directory so that a callosum.yaml
// in the working directory cannot leak into tests.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "callosum.yaml")
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileStdin(t *testing.T) {
	out, _, err := run(t, ada, "compile", "-t", "json")
	require.NoError(t, err)
	assert.Equal(t, "Ada", gjson.Get(out, "name").String())
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestCompilePromptWithContext(t *testing.T) {
	out, _, err := run(t, ada, "compile", "-t", "prompt", "--context", "Be kind.")
	require.NoError(t, err)
	assert.Contains(t, out, "- curiosity: Very high (0.8) (naturally decays 0 per month)")
	assert.True(t, strings.HasSuffix(out, "## Context\nBe kind.\n"))
}

func TestCompileOptimized(t *testing.T) {
	out, _, err := run(t, ada, "compile", "-t", "json", "-O", "basic")
	require.NoError(t, err)
	assert.Equal(t, "[]", gjson.Get(out, "traits.0.modifiers").Raw)
}

func TestCompileOutputFile(t *testing.T) {
	src := writeDoc(t, "ada.pdsl", ada)
	dst := filepath.Join(t.TempDir(), "ada.lua")

	out, _, err := run(t, "", "compile", src, "-t", "lua", "-o", dst)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "return personality")
}

func TestCompileMultipleFiles(t *testing.T) {
	a := writeDoc(t, "a.pdsl", ada)
	b := writeDoc(t, "b.pdsl", `personality "Bad" { traits { x: 2 } }`)

	out, stderr, err := run(t, "", "compile", a, b, "-t", "sql")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "'Ada'")
	assert.NotContains(t, out, "'Bad'")
	assert.Contains(t, stderr, "compile "+b+": InvalidTraitStrength(x, 2)")

	_, _, err = run(t, "", "compile", a, b, "-o", filepath.Join(t.TempDir(), "out"))
	assert.ErrorContains(t, err, "--output needs a single input")
}

func TestCompileErrors(t *testing.T) {
	_, stderr, err := run(t, `personality "X" { traits { a 0.5 } }`, "compile")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, stderr, "<input>:1:30")

	_, _, err = run(t, ada, "compile", "-t", "yaml")
	assert.EqualError(t, err, "UnknownTarget(yaml)")

	_, _, err = run(t, ada, "compile", "-O", "max")
	assert.ErrorContains(t, err, "unknown optimization level")

	_, _, err = run(t, "", "compile", filepath.Join(t.TempDir(), "missing.pdsl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompileWarningsGoToStderr(t *testing.T) {
	src := `personality "X" { knowledge { domain(a) { t: expert } } }`
	out, stderr, err := run(t, src, "compile")
	require.NoError(t, err)
	assert.NotContains(t, out, "warning")
	assert.Contains(t, stderr, "<input>: warning: UnusedDomain(a)")
}

func TestCompileUsesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "callosum.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("compile:\n  target: lua\n"), 0o644))

	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetIn(strings.NewReader(ada))
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfg, "compile"})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "local personality = {}")
}

func TestCheck(t *testing.T) {
	out, _, err := run(t, ada, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "<input> (Ada)")
	assert.Contains(t, out, "0 errors")

	bad := `personality "X" { behaviors { when tired -> prefer "a"; when motivated -> avoid "a" } }`
	out, _, err = run(t, bad, "check", "--format", "markdown")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "ContradictoryBehavior")
	assert.Contains(t, out, "| error")

	_, stderr, err := run(t, `personality "X" { traits { a: 5 } }`, "check")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, stderr, "InvalidTraitStrength(a, 5)")
}

func TestOptimize(t *testing.T) {
	out, stderr, err := run(t, ada, "optimize")
	require.NoError(t, err)
	assert.Contains(t, out, "curiosity: 0.8;")
	assert.NotContains(t, out, "decay")
	assert.Contains(t, stderr, "modifiers folded")
}

func TestFmt(t *testing.T) {
	out, _, err := run(t, `personality "X" {traits{a:0.5}}`, "fmt")
	require.NoError(t, err)
	assert.Equal(t, "personality \"X\" {\n  traits {\n    a: 0.5\n  }\n}\n", out)
}

func TestFmtWrite(t *testing.T) {
	path := writeDoc(t, "x.pdsl", `personality "X" {traits{a:0.5}}`)
	_, _, err := run(t, "", "fmt", "-w", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "personality \"X\" {\n  traits {\n    a: 0.5\n  }\n}\n", string(data))

	_, _, err = run(t, "", "fmt", "-w")
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	out, _, err := run(t, `personality "X" {}`, "tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "1:1")
	assert.Contains(t, out, "1:13")
	assert.Contains(t, out, "X")

	_, _, err = run(t, `personality "X`, "tokens")
	assert.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	out, _, err := run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "target: json")

	path := filepath.Join(t.TempDir(), "callosum.yaml")
	out, _, err = run(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestBadLogLevel(t *testing.T) {
	_, _, err := run(t, ada, "--log-level", "loud", "check")
	assert.ErrorContains(t, err, "log.level")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "callosum dev\n", out)
	assert.False(t, errors.Is(err, errFailed))
}
