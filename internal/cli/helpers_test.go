package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolateConfig keeps config lookup away from the developer's machine.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TRIPLESTORE_CONFIG", "")
	t.Setenv("TRIPLESTORE_DB", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", filepath.Join(dir, "home"))
	return dir
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) cliResult {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return cliResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// executeJSON runs a command with --format json and decodes the response.
func executeJSON(t *testing.T, db string, args ...string) (CLIResponse, cliResult) {
	t.Helper()
	res := execute(t, append([]string{"--format", "json", "--db", db}, args...)...)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp), "stdout: %s", res.stdout)
	return resp, res
}

// dataField reads a top-level field from a successful JSON response.
func dataField(t *testing.T, resp CLIResponse, key string) any {
	t.Helper()
	require.Equal(t, "ok", resp.Status, "response: %+v", resp)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data[key]
}
