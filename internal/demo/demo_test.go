package demo

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/image"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue() *cell.Queue {
	return cell.NewQueue(
		cell.WithTemplates(Templates()),
		cell.WithImageLoader(image.IconResolver{}),
	)
}

func TestSettings(t *testing.T) {
	table := Settings()

	require.Len(t, table.Sections, 2)
	assert.Equal(t, "user", table.Sections[0].ID)
	assert.Equal(t, "device", table.Sections[1].ID)

	var ids []string
	for _, section := range table.Sections {
		for _, item := range section.Items {
			ids = append(ids, item.Identifier)
		}
	}
	assert.Equal(t, []string{"profile", "airplane", "wifi"}, ids)

	profile, ok := table.ItemAt(model.IndexPath{Section: 0, Row: 0})
	require.True(t, ok)
	detail, ok := profile.Data.Detail()
	require.True(t, ok)
	assert.Equal(t, "Apple ID, iCloud, iTunes & App Store", detail)

	airplane, ok := table.ItemAt(model.IndexPath{Section: 1, Row: 0})
	require.True(t, ok)
	_, ok = airplane.Data.Detail()
	assert.False(t, ok)
}

func TestSettingsSelector(t *testing.T) {
	screen, err := Lookup("settings")
	require.NoError(t, err)
	table, err := screen.Table()
	require.NoError(t, err)

	adapter := datasource.New(table, screen.Selector)
	q := newQueue()

	profile, err := adapter.CellFor(model.IndexPath{Section: 0, Row: 0}, q)
	require.NoError(t, err)
	require.IsType(t, &AvatarCell{}, profile)

	content := profile.Content()
	assert.Equal(t, cell.LayoutSubtitle, content.Layout)
	assert.Equal(t, AvatarRef, content.ImageRef)
	assert.True(t, content.Style.RoundedImage)
	assert.True(t, content.Style.EmphasizeTitle)
	require.NotNil(t, content.Image)

	airplane, err := adapter.CellFor(model.IndexPath{Section: 1, Row: 0}, q)
	require.NoError(t, err)
	assert.Equal(t, cell.ControlSwitch, airplane.Content().Control)

	wifi, err := adapter.CellFor(model.IndexPath{Section: 1, Row: 1}, q)
	require.NoError(t, err)
	assert.Equal(t, cell.LayoutRightDetail, wifi.Content().Layout)
	assert.Equal(t, "Off", wifi.Content().Detail)
}

func TestAvatarClassIsRegistered(t *testing.T) {
	kind, err := cell.ParseKind("class:avatar")
	require.NoError(t, err)
	assert.Equal(t, cell.CustomClass(AvatarClass).ReuseIdentifier(), kind.ReuseIdentifier())
}

func TestAvatarCellKeepsNavigation(t *testing.T) {
	child := model.NewTable("child", model.NewSection("", model.NewItem("leaf", nil)))
	c := NewAvatarCell()
	c.Customize()
	c.Update(model.NewItem("x", model.NewData(model.WithTitle("X"), model.WithChild(child))))

	content := c.Content()
	assert.Equal(t, "X", content.Text)
	assert.Equal(t, cell.AccessoryDisclosure, content.Accessory)
	assert.Equal(t, AvatarRef, content.ImageRef)

	c.Update(model.NewItem("bare", nil))
	assert.Equal(t, "", c.Content().Text)
	assert.Equal(t, AvatarRef, c.Content().ImageRef)
}

func TestDrillDown(t *testing.T) {
	table, err := DrillDown()
	require.NoError(t, err)
	assert.Equal(t, "Drill Down", table.Title)

	adapter := datasource.New(table, CustomSelector(cell.Plain))
	nav, ok := adapter.DidSelect(model.IndexPath{Section: 0, Row: 0})
	require.True(t, ok)
	require.NotNil(t, nav.Push)
	assert.Equal(t, "About", nav.Push.Title())
	assert.Equal(t, 1, nav.Push.Depth())
	assert.Equal(t, 3, nav.Push.NumberOfRows(0))

	_, ok = adapter.DidSelect(model.IndexPath{Section: 0, Row: 2})
	assert.False(t, ok, "an empty child table is not navigable")

	footer, ok := adapter.Footer(1)
	require.True(t, ok)
	assert.Equal(t, "Edit a field and press enter to save it.", footer)
}

func TestCustomSelector(t *testing.T) {
	selector := CustomSelector(cell.Subtitle)
	cases := []struct {
		name string
		item model.Item
		want cell.Kind
	}{
		{"no data", model.NewItem("a", nil), cell.Subtitle},
		{"no custom", model.NewItem("b", model.NewData(model.WithTitle("B"))), cell.Subtitle},
		{"toggle", customItem("toggle"), cell.ToggleKind},
		{"camel case", customItem("textInput"), cell.TextInput},
		{"unknown", customItem("spinner"), cell.Subtitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := selector(tc.item, model.IndexPath{}, model.Table{})
			assert.Equal(t, tc.want.ReuseIdentifier(), got.ReuseIdentifier())
		})
	}
}

func customItem(kind string) model.Item {
	return model.NewItem(kind, model.NewData(model.WithCustom(mapping.Object{
		CustomCell: mapping.String(kind),
	})))
}

func TestDecodeRepo(t *testing.T) {
	repo, err := DecodeRepo(mapping.Map{
		"name":             "AEXML",
		"description":      "XML parsing",
		"owner":            map[string]any{"login": "tadija", "avatar_url": "https://avatars1.githubusercontent.com/u/2762374?v=3"},
		"updated_at":       "2017-06-12T09:40:51Z",
		"forks_count":      float64(139),
		"stargazers_count": float64(876),
	})
	require.NoError(t, err)

	want := Repo{
		Name:        "AEXML",
		Description: "XML parsing",
		Owner:       Owner{Username: "tadija", AvatarURL: "https://avatars1.githubusercontent.com/u/2762374?v=3"},
		Updated:     time.Date(2017, 6, 12, 9, 40, 51, 0, time.UTC),
		ForksCount:  139,
		StarsCount:  876,
	}
	if diff := cmp.Diff(want, repo); diff != "" {
		t.Errorf("DecodeRepo mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "https://avatars1.githubusercontent.com/u/2762374", repo.OwnerImageURL())
	assert.Equal(t, "Jun 12, 2017 at 9:40 AM", repo.UpdatedFormatted())

	custom := repo.Custom()
	forks, _ := custom.GetString("forks")
	stars, _ := custom.GetString("stars")
	owner, _ := custom.GetString("owner")
	assert.Equal(t, "⋔ 139", forks)
	assert.Equal(t, "★ 876", stars)
	assert.Equal(t, "@tadija", owner)
}

func TestDecodeRepoRequiresOwner(t *testing.T) {
	_, err := DecodeRepo(mapping.Map{"name": "orphan"})
	var missing *mapping.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "owner", missing.Key)
}

func TestReposTemplate(t *testing.T) {
	table, err := Repos()
	require.NoError(t, err)
	require.Len(t, table.Sections[0].Items, 4)

	adapter := datasource.New(table, reposSelector)
	q := newQueue()

	r, err := adapter.CellFor(model.IndexPath{Section: 0, Row: 1}, q)
	require.NoError(t, err)
	content := r.Content()
	assert.Equal(t, cell.LayoutCustom, content.Layout)
	assert.Equal(t, []string{
		"AEXML  @tadija · Jun 12, 2017 at 9:40 AM",
		"Swift minion for simple and lightweight XML parsing",
		"⋔ 139   ★ 876",
	}, content.Lines)

	// the last record has no description and an unparsable date
	r, err = adapter.CellFor(model.IndexPath{Section: 0, Row: 3}, q)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"AENotifications  @tadija",
		"No description",
		"⋔ 0   ★ 2",
	}, r.Content().Lines)
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"drilldown", "repos", "settings"}, Names())

	for _, name := range Names() {
		screen, err := Lookup(name)
		require.NoError(t, err)
		_, err = screen.Table()
		require.NoError(t, err, name)
	}

	_, err := Lookup("missing")
	assert.ErrorContains(t, err, "available: drilldown, repos, settings")
}
