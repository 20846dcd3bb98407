package dump

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kong/tablemodel/internal/cmd"
	"github.com/kong/tablemodel/internal/iostreams"
	cmdtest "github.com/kong/tablemodel/test/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

// image is not a string, so the decoded item drops it
const settingsYAML = `title: Settings
sections:
  - id: device
    header: Device
    items:
      - id: airplane
        data:
          title: Airplane Mode
          image: 42
          custom:
            on: true
      - id: wifi
        data:
          title: Wi-Fi
          detail: "Off"
`

func newRoot(t *testing.T, stdin string) (*cmdtest.TestRoot, *bytes.Buffer) {
	t.Helper()
	dumpCmd, err := NewDumpCmd()
	require.NoError(t, err)

	streams, in, out, _ := iostreams.NewTestIOStreams()
	in.WriteString(stdin)
	return cmdtest.NewTestRoot(t, dumpCmd, &streams), out
}

func TestDumpText(t *testing.T) {
	root, out := newRoot(t, settingsYAML)
	require.NoError(t, root.Run("dump"))

	got := out.String()
	assert.Contains(t, got, "# Settings\n")
	assert.Contains(t, got, "## Device\n")
	assert.Contains(t, got, "- **Airplane Mode** `airplane` (on=true)\n")
	assert.Contains(t, got, "- **Wi-Fi** `wifi`: Off\n")
}

func TestDumpJSONDropsInvalidFields(t *testing.T) {
	root, out := newRoot(t, settingsYAML)
	require.NoError(t, root.Run("dump", "-o", "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	items := got["sections"].([]any)[0].(map[string]any)["items"].([]any)
	data := items[0].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "Airplane Mode", data["title"])
	assert.NotContains(t, data, "image")
	assert.Equal(t, map[string]any{"on": true}, data["custom"])
}

func TestDumpJSONWithRawFilter(t *testing.T) {
	root, out := newRoot(t, settingsYAML)
	require.NoError(t, root.Run("dump", "-o", "json", "--jq", ".sections[0].items[].id", "-r"))
	assert.Equal(t, "airplane\nwifi\n", out.String())
}

func TestDumpYAMLWithFilter(t *testing.T) {
	root, out := newRoot(t, settingsYAML)
	require.NoError(t, root.Run("dump", "-o", "yaml", "--jq", ".sections[0].items[1]"))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "wifi", got["id"])
}

func TestDumpFilterNeedsStructuredOutput(t *testing.T) {
	root, _ := newRoot(t, settingsYAML)
	err := root.Run("dump", "--jq", ".title")
	var cfgErr *cmd.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "--jq is only supported with --output json or --output yaml")
}

func TestDumpQuerySelectsTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[main]
title = "Main"

[[main.sections]]
[[main.sections.items]]
id = "one"
`), 0o600))

	root, out := newRoot(t, "")
	require.NoError(t, root.Run("dump", path, "--query", "main", "-o", "json"))
	assert.Contains(t, out.String(), `"title": "Main"`)
	assert.Contains(t, out.String(), `"id": "one"`)
}

func TestDumpDemo(t *testing.T) {
	root, out := newRoot(t, "")
	require.NoError(t, root.Run("dump", "--demo", "drilldown", "-o", "json", "--jq", ".title", "-r"))
	assert.Equal(t, "Drill Down\n", out.String())

	root, out = newRoot(t, "")
	require.NoError(t, root.Run("dump", "--demo", "repos"))
	assert.Contains(t, out.String(), "**AEXML** `tadija/AEXML`")
}

func TestDumpDecodeError(t *testing.T) {
	root, _ := newRoot(t, "sections: []\n")
	err := root.Run("dump")
	var execErr *cmd.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "failed to decode the model document", execErr.Msg)
	assert.Contains(t, err.Error(), "invalid model at title")
}
