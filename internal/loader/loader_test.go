package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonDoc = `{
  "title": "settings",
  "sections": [
    {"id": "device", "header": "Device", "items": [
      {"id": "wifi", "data": {"title": "Wi-Fi", "detail": "Off", "custom": {"channel": 6}}}
    ]}
  ]
}`

const yamlDoc = `
title: settings
sections:
  - id: device
    header: Device
    items:
      - id: wifi
        data:
          title: Wi-Fi
          detail: "Off"
          custom:
            channel: 6
`

const tomlDoc = `
title = "settings"

[[sections]]
id = "device"
header = "Device"

  [[sections.items]]
  id = "wifi"

    [sections.items.data]
    title = "Wi-Fi"
    detail = "Off"

      [sections.items.data.custom]
      channel = 6
`

func TestFormatsProduceTheSameTree(t *testing.T) {
	want, err := Parse([]byte(jsonDoc), FormatJSON)
	require.NoError(t, err)

	for format, doc := range map[Format]string{FormatYAML: yamlDoc, FormatTOML: tomlDoc} {
		t.Run(string(format), func(t *testing.T) {
			got, err := Parse([]byte(doc), format)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("tree mismatch (-json +%s):\n%s", format, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("   \n"), FormatJSON)
	assert.ErrorContains(t, err, "empty")

	_, err = Parse([]byte("title = "), FormatTOML)
	assert.ErrorContains(t, err, "TOML")

	_, err = Parse([]byte("title: [unclosed"), FormatYAML)
	assert.ErrorContains(t, err, "YAML")

	_, err = Parse([]byte("{}"), Format("xml"))
	assert.Error(t, err)
}

func TestNormalizeTOMLValues(t *testing.T) {
	root, err := Parse([]byte("count = 3\nwhen = 2024-01-02T03:04:05Z\nlist = [1, 2]\n"), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"count": float64(3),
		"when":  "2024-01-02T03:04:05Z",
		"list":  []any{float64(1), float64(2)},
	}, root)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("a/b.JSON"))
	assert.Equal(t, FormatTOML, FormatFromPath("model.toml"))
	assert.Equal(t, FormatYAML, FormatFromPath("model.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("model"))

	f, err := ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("ini")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlDoc), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, doc.Format)
	assert.Equal(t, "settings", doc.Root.(map[string]any)["title"])

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to open file")
}

func TestSelect(t *testing.T) {
	root, err := Read(strings.NewReader(`{"screens": {"settings": {"title": "s", "sections": []}}}`), FormatJSON)
	require.NoError(t, err)

	same, err := Select(root, "  ")
	require.NoError(t, err)
	assert.Equal(t, root, same)

	got, err := Select(root, "screens.settings")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "s", "sections": []any{}}, got)

	_, err = Select(root, "screens.missing")
	assert.ErrorContains(t, err, "matched nothing")

	_, err = Select(root, "screens[")
	assert.ErrorContains(t, err, "invalid query")
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonDoc), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := Watch(ctx, path, 20*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(other, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"title": "x", "sections": []}`), 0o600))

	select {
	case change := <-changes:
		require.NoError(t, change.Err)
		assert.Equal(t, path, change.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-changes:
			return !open
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}
