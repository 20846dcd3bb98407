// Package loader reads model documents into the untyped tree the model package
// decodes. JSON, YAML and TOML are supported; all three produce the same shapes
// (map[string]any, []any, string, float64, bool).
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jmespath/go-jmespath"
	"sigs.k8s.io/yaml"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension. Unknown extensions
// are read as YAML, which also accepts JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// ParseFormat reads a format name given on the command line.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatTOML:
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported document format %q (use json, yaml or toml)", name)
}

// Document is a parsed model file.
type Document struct {
	Path   string
	Format Format
	Root   any
}

// LoadFile reads and parses the file at path.
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	format := FormatFromPath(path)
	root, err := Read(f, format)
	if err != nil {
		return Document{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return Document{Path: path, Format: format, Root: root}, nil
}

// Read parses a whole document from r.
func Read(r io.Reader, format Format) (any, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return Parse(content, format)
}

// Parse parses content in the given format.
func Parse(content []byte, format Format) (any, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	switch format {
	case FormatTOML:
		var root map[string]any
		if _, err := toml.Decode(string(content), &root); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		return normalize(root), nil
	case FormatJSON, FormatYAML, "":
		// sigs.k8s.io/yaml converts to JSON first, so both formats yield
		// encoding/json shapes
		var root any
		if err := yaml.Unmarshal(content, &root); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", strings.ToUpper(string(orYAML(format))), err)
		}
		return root, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

func orYAML(format Format) Format {
	if format == "" {
		return FormatYAML
	}
	return format
}

// normalize converts TOML decoder values into the shapes produced by the JSON
// decoder.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalize(elem)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	case int64:
		return float64(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}

// Select narrows root with a JMESPath expression. An empty expression returns
// root unchanged.
func Select(root any, expression string) (any, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return root, nil
	}
	result, err := jmespath.Search(expression, root)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expression, err)
	}
	if result == nil {
		return nil, fmt.Errorf("query %q matched nothing", expression)
	}
	return result, nil
}
