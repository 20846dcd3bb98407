package demo

import (
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/model"
)

// AvatarRef is the image every AvatarCell shows, whatever the item carries.
const AvatarRef = "https://avatars1.githubusercontent.com/u/2762374"

// AvatarCell is a subtitle cell written in code: an emphasized title over a
// muted caption, next to a round avatar.
type AvatarCell struct {
	cell.Basic
}

func NewAvatarCell() *AvatarCell {
	return &AvatarCell{}
}

// AvatarClass is registered as "avatar", so a configuration can select it
// with "class:avatar".
var AvatarClass = cell.NewClass("avatar", NewAvatarCell)

func init() {
	cell.RegisterClass(AvatarClass)
}

func (c *AvatarCell) Customize() {
	c.SetLayout(cell.LayoutSubtitle)
	c.SetStyle(cell.Style{
		EmphasizeTitle: true,
		MutedDetail:    true,
		RoundedImage:   true,
	})
}

func (c *AvatarCell) Update(item model.Item) {
	data := item.Data
	if data == nil {
		data = model.NoData{}
	}
	item.Data = avatarData{ItemData: data}
	c.Basic.Update(item)
}

type avatarData struct {
	model.ItemData
}

func (avatarData) Image() (string, bool) { return AvatarRef, true }
