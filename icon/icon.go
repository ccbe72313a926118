// Package icon renders UI symbols in the variant selected by the icons.variant setting.
package icon

import (
	"github.com/emeltv/emel/key"
	"github.com/spf13/viper"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Stop
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

func (d iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

var icons = map[Icon]iconDef{
	Success:  {emoji: "🎉", nerd: "", plain: "✓"},
	Fail:     {emoji: "💀", nerd: "", plain: "✖"},
	Progress: {emoji: "⏳", nerd: "", plain: "…"},
	Play:     {emoji: "▶️", nerd: "", plain: ">"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||"},
	Stop:     {emoji: "⏹️", nerd: "", plain: "[]"},
}

// Get returns the rendered string for an icon.
func Get(i Icon) string {
	return icons[i].get()
}
