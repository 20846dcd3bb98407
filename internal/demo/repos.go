package demo

import (
	"fmt"
	"strings"
	"time"

	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/loader"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
)

// RepoTemplate is the template that lays out repository rows.
const RepoTemplate = "repo.tmpl"

const updatedLayout = "Jan 2, 2006 at 3:04 PM"

// Owner is the account a repository belongs to.
type Owner struct {
	Username  string
	AvatarURL string
}

// Repo is a GitHub repository record used directly as item data.
type Repo struct {
	model.NoData

	Name        string
	Description string
	Owner       Owner
	Updated     time.Time
	ForksCount  int
	StarsCount  int
}

func (r Repo) Title() (string, bool) { return r.Name, r.Name != "" }

func (r Repo) Detail() (string, bool) { return r.Description, r.Description != "" }

func (r Repo) Image() (string, bool) {
	ref := r.OwnerImageURL()
	return ref, ref != ""
}

func (r Repo) Custom() mapping.Object {
	custom := mapping.Object{
		"owner": mapping.String("@" + r.Owner.Username),
		"forks": mapping.String(fmt.Sprintf("⋔ %d", r.ForksCount)),
		"stars": mapping.String(fmt.Sprintf("★ %d", r.StarsCount)),
	}
	if updated := r.UpdatedFormatted(); updated != "" {
		custom["updated"] = mapping.String(updated)
	}
	return custom
}

// OwnerImageURL is the owner avatar without the version query GitHub appends.
func (r Repo) OwnerImageURL() string {
	return strings.ReplaceAll(r.Owner.AvatarURL, "?v=3", "")
}

// UpdatedFormatted renders the update time as a medium date with a short time.
// A repository without a known update time yields "".
func (r Repo) UpdatedFormatted() string {
	if r.Updated.IsZero() {
		return ""
	}
	return r.Updated.UTC().Format(updatedLayout)
}

type repoKey string

const (
	repoName        repoKey = "name"
	repoDescription repoKey = "description"
	repoOwner       repoKey = "owner"
	repoUpdated     repoKey = "updated_at"
	repoForks       repoKey = "forks_count"
	repoStars       repoKey = "stargazers_count"
	ownerLogin      repoKey = "login"
	ownerAvatar     repoKey = "avatar_url"
)

// DecodeRepo decodes a repository as the GitHub API returns it. The name and
// owner are required, everything else falls back to its zero value.
func DecodeRepo(m mapping.Map) (Repo, error) {
	name, err := mapping.Value[string](m, repoName)
	if err != nil {
		return Repo{}, err
	}
	owner, err := mapping.Mappable(m, repoOwner, decodeOwner)
	if err != nil {
		return Repo{}, err
	}
	repo := Repo{Name: name, Owner: owner}
	repo.Description, _ = mapping.Optional(mapping.Value[string](m, repoDescription))
	repo.ForksCount, _ = mapping.Optional(mapping.Value[int](m, repoForks))
	repo.StarsCount, _ = mapping.Optional(mapping.Value[int](m, repoStars))
	if raw, ok := mapping.Optional(mapping.Value[string](m, repoUpdated)); ok {
		if updated, err := time.Parse(time.RFC3339, raw); err == nil {
			repo.Updated = updated
		}
	}
	return repo, nil
}

func decodeOwner(m mapping.Map) (Owner, error) {
	login, err := mapping.Value[string](m, ownerLogin)
	if err != nil {
		return Owner{}, err
	}
	avatar, _ := mapping.Optional(mapping.Value[string](m, ownerAvatar))
	return Owner{Username: login, AvatarURL: avatar}, nil
}

// Repos lists the embedded repositories, one item per repository keyed by its
// full name.
func Repos() (model.Table, error) {
	raw, err := dataFS.ReadFile("data/repos.json")
	if err != nil {
		return model.Table{}, err
	}
	root, err := loader.Parse(raw, loader.FormatJSON)
	if err != nil {
		return model.Table{}, err
	}
	// the API returns a bare array, so wrap it to reuse the array decoder
	repos, err := mapping.MappableArray(mapping.Map{"repos": root}, "repos", DecodeRepo)
	if err != nil {
		return model.Table{}, fmt.Errorf("decoding repositories: %w", err)
	}

	items := make([]model.Item, 0, len(repos))
	for _, repo := range repos {
		items = append(items, model.NewItem(repo.Owner.Username+"/"+repo.Name, repo))
	}
	return model.NewTable("Repositories",
		model.NewSection("repos", items...).WithHeader("tadija"),
	), nil
}

func reposSelector(model.Item, model.IndexPath, model.Table) cell.Kind {
	return cell.Template(RepoTemplate)
}
