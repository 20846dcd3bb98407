// Package demo holds example tables and the renderers that show them. Each
// screen pairs a table with the selector that picks its cell kinds.
package demo

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/loader"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
)

//go:embed data/*.json
var dataFS embed.FS

//go:embed templates/*.tmpl
var templateFS embed.FS

// CustomCell is the custom data key a document can use to pick the cell kind
// of one item, with any name cell.ParseKind accepts.
const CustomCell = "cell"

// Screen is a named example.
type Screen struct {
	Name        string
	Description string
	Table       func() (model.Table, error)
	Selector    datasource.KindSelector
}

var screens = map[string]Screen{
	"settings": {
		Name:        "settings",
		Description: "settings screen built in code",
		Table:       func() (model.Table, error) { return Settings(), nil },
		Selector:    settingsSelector,
	},
	"drilldown": {
		Name:        "drilldown",
		Description: "nested tables decoded from JSON",
		Table:       DrillDown,
		Selector:    CustomSelector(cell.Plain),
	},
	"repos": {
		Name:        "repos",
		Description: "repository records drawn by a template",
		Table:       Repos,
		Selector:    reposSelector,
	},
}

// Names lists the available screens.
func Names() []string {
	names := make([]string, 0, len(screens))
	for name := range screens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the screen called name.
func Lookup(name string) (Screen, error) {
	s, ok := screens[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Screen{}, fmt.Errorf("unknown demo %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Templates is the file system the demo templates are read from.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// DrillDown decodes the embedded drill-down document.
func DrillDown() (model.Table, error) {
	raw, err := dataFS.ReadFile("data/drilldown.json")
	if err != nil {
		return model.Table{}, err
	}
	root, err := loader.Parse(raw, loader.FormatJSON)
	if err != nil {
		return model.Table{}, err
	}
	return model.Decode(root)
}

// CustomSelector picks the kind named by an item's custom "cell" value and
// falls back to fallback when the value is absent or not a known kind.
func CustomSelector(fallback cell.Kind) datasource.KindSelector {
	return func(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
		if item.Data == nil {
			return fallback
		}
		return kindFromCustom(item.Data.Custom(), fallback)
	}
}

func kindFromCustom(custom mapping.Object, fallback cell.Kind) cell.Kind {
	name, ok := custom.GetString(CustomCell)
	if !ok {
		return fallback
	}
	kind, err := cell.ParseKind(name)
	if err != nil {
		return fallback
	}
	return kind
}
