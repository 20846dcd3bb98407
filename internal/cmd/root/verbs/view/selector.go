package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/model"
)

// configuredSelector maps item identifiers to kinds, using defaultKind for any
// item not named in cells. Identifiers match without regard to case, since
// viper lowercases the keys it reads from a config file. Every name is parsed
// up front so a typo fails the command before anything is drawn.
func configuredSelector(defaultName string, cells map[string]string) (datasource.KindSelector, error) {
	defaultKind, err := cell.ParseKind(defaultName)
	if err != nil {
		return nil, fmt.Errorf("invalid default cell: %w", err)
	}

	ids := make([]string, 0, len(cells))
	for id := range cells {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	kinds := make(map[string]cell.Kind, len(cells))
	for _, id := range ids {
		kind, err := cell.ParseKind(cells[id])
		if err != nil {
			return nil, fmt.Errorf("invalid cell for %q: %w", id, err)
		}
		key := strings.ToLower(id)
		if prev, ok := kinds[key]; ok && prev.ReuseIdentifier() != kind.ReuseIdentifier() {
			return nil, fmt.Errorf("conflicting cells for %q: identifiers match without regard to case", id)
		}
		kinds[key] = kind
	}

	return func(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
		if kind, ok := kinds[strings.ToLower(item.Identifier)]; ok {
			return kind
		}
		return defaultKind
	}, nil
}
