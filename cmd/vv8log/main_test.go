package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testLog = `$1:"https\://example.com/app.js":x
$2:"":/* Create Gremlins horde */ gremlins.createHorde()
!1
c5:%atob:{1,Window}
g6:{1,Window}:"document"
bogus
!2
!1
c7:%atob:{1,Window}
n8:%Image
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&app{})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeLog(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o644))
	return path
}

func TestParseCommand(t *testing.T) {
	path := writeLog(t, t.TempDir(), "trace.log")

	out, err := runCLI(t, "parse", "--failures", path)
	require.NoError(t, err)
	assert.Contains(t, out, "9 records, 1 failures")
	assert.Contains(t, out, "line 6: unknown log record type: bogus")
	assert.Contains(t, out, "execution-context")
}

func TestAggregateCommandJSON(t *testing.T) {
	path := writeLog(t, t.TempDir(), "vv8-1-2-3-main.log")

	out, err := runCLI(t, "aggregate", "--format", "json", path)
	require.NoError(t, err)

	var reports []fileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	r := reports[0]
	require.NotNil(t, r.Info)
	assert.Equal(t, "main", r.Info.Thread)
	assert.Equal(t, 9, r.Records)
	assert.Equal(t, 1, r.ParseFailures)
	require.Len(t, r.Scripts, 2)

	first := r.Scripts[0]
	assert.Equal(t, int32(1), first.ID)
	assert.Equal(t, uint32(1), first.Line)
	require.Len(t, first.Calls, 3)
	assert.Equal(t, "atob", first.Calls[0].Attribute)
	assert.Equal(t, []uint32{4, 9}, first.Calls[0].Lines)
	assert.Equal(t, 1, first.Calls[0].AfterInteraction)
	assert.Contains(t, out, `"injection": "interaction"`)
	assert.Contains(t, out, `"kind": "Construction"`)
}

func TestAggregateCommandYAMLDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "vv8-2-1-1-main.log")
	writeLog(t, dir, "vv8-1-1-1-main.log")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chrome_debug.log"), []byte("x\n"), 0o644))

	out, err := runCLI(t, "aggregate", "-o", "yaml", dir)
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.True(t, strings.HasSuffix(reports[0]["path"].(string), "vv8-1-1-1-main.log"))
}

func TestAggregateCommandCBOR(t *testing.T) {
	path := writeLog(t, t.TempDir(), "vv8-1-2-3-main.log")

	first, err := runCLI(t, "aggregate", "--format", "cbor", path)
	require.NoError(t, err)
	second, err := runCLI(t, "aggregate", "--format", "cbor", path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "canonical encoding is stable")

	var reports []struct {
		Path    string `json:"path"`
		Records int    `json:"records"`
		Scripts []struct {
			ID   int32  `json:"id"`
			Hash string `json:"hash"`
		} `json:"scripts"`
	}
	require.NoError(t, cbor.Unmarshal([]byte(first), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, path, reports[0].Path)
	assert.Equal(t, 9, reports[0].Records)
	require.Len(t, reports[0].Scripts, 2)
	assert.Len(t, reports[0].Scripts[0].Hash, 64)
}

func TestAggregateCommandText(t *testing.T) {
	path := writeLog(t, t.TempDir(), "trace.log")

	out, err := runCLI(t, "aggregate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "script 2 <empty> [interaction]")
	assert.Contains(t, out, "Function Window.atob x2 (1 after interaction)")
	assert.Contains(t, out, "└─ Get Window.document x1")
}

func TestAggregateCommandUnknownFormat(t *testing.T) {
	path := writeLog(t, t.TempDir(), "trace.log")

	_, err := runCLI(t, "aggregate", "--format", "xml", path)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Contains(t, cliErr.Hint, "json")
}

func TestCallsCommand(t *testing.T) {
	path := writeLog(t, t.TempDir(), "trace.log")

	out, err := runCLI(t, "calls", "--receiver", "Window", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Function Window.atob")
	assert.Contains(t, lines[0], "scripts 1")
	assert.NotContains(t, out, "Image")
}

func TestCallsCommandSuggestsReceiver(t *testing.T) {
	path := writeLog(t, t.TempDir(), "trace.log")

	_, err := runCLI(t, "calls", "--receiver", "Windw", path)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, `did you mean "Window"?`, cliErr.Hint)

	_, err = runCLI(t, "calls", "--receiver", "Imgae", path)
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, `did you mean "Image"?`, cliErr.Hint)
}

func TestConfigErrorIsReported(t *testing.T) {
	_, err := runCLI(t, "--config", "missing.yaml", "parse", "-")
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "config", cliErr.Type)
}

func TestFindClosestMatch(t *testing.T) {
	candidates := []string{"Document", "Navigator", "Window"}
	assert.Equal(t, "Window", findClosestMatch("win", candidates))
	assert.Equal(t, "Navigator", findClosestMatch("Navigatr", candidates))
	assert.Equal(t, "", findClosestMatch("zzzzzz", candidates))
	assert.Equal(t, "", findClosestMatch("x", nil))
}

func TestFormatError(t *testing.T) {
	var buf bytes.Buffer
	FormatError(&buf, &CLIError{Message: "boom", Details: "context", Hint: "try again"}, false)
	assert.Equal(t, "Error: boom\n\ncontext\nHint: try again\n", buf.String())

	buf.Reset()
	FormatError(&buf, errors.New("plain"), true)
	assert.Equal(t, ColorRed+"Error: "+ColorReset+"plain\n", buf.String())
}
