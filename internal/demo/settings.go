package demo

import (
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/model"
)

// Settings is a small settings screen built directly in code.
func Settings() model.Table {
	return model.NewTable("Settings",
		model.NewSection("user", profileItem()),
		model.NewSection("device", airplaneItem(), wifiItem()).
			WithHeader("Device").
			WithFooter("Changes apply immediately."),
	)
}

func profileItem() model.Item {
	return model.NewItem("profile", model.NewData(
		model.WithImage("IconGray"),
		model.WithTitle("Marko Tadic"),
		model.WithDetail("Apple ID, iCloud, iTunes & App Store"),
	))
}

func airplaneItem() model.Item {
	return model.NewItem("airplane", model.NewData(
		model.WithImage("IconOrange"),
		model.WithTitle("Airplane Mode"),
	))
}

func wifiItem() model.Item {
	return model.NewItem("wifi", model.NewData(
		model.WithImage("IconBlue"),
		model.WithTitle("Wi-Fi"),
		model.WithDetail("Off"),
	))
}

// settingsSelector shows the profile with the avatar cell, the airplane mode
// as a switch and the Wi-Fi state as a trailing detail.
func settingsSelector(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
	switch item.Identifier {
	case "profile":
		return cell.CustomClass(AvatarClass)
	case "airplane":
		return cell.ToggleKind
	case "wifi":
		return cell.RightDetail
	}
	return cell.Plain
}
