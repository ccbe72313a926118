package cmd

import (
	"fmt"

	"github.com/emeltv/emel/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// pathTarget is a location on disk that `where` prints and `clear` may remove.
type pathTarget struct {
	name      string
	flag      string
	short     mo.Option[string]
	location  func() string
	clearable bool
	hidden    bool
}

var pathTargets = []pathTarget{
	{name: "config directory", flag: "config", short: mo.Some("c"), location: where.Config},
	{name: "logs directory", flag: "logs", short: mo.Some("l"), location: where.Logs, clearable: true},
	{name: "player sockets", flag: "sockets", short: mo.Some("s"), location: where.Sockets, clearable: true},
	{name: "config file", flag: "config-file", short: mo.None[string](), location: where.ConfigFile, hidden: true},
}

// bindPathFlags adds one boolean flag per target to cmd.
func bindPathFlags(cmd *cobra.Command, targets []pathTarget, verb string) {
	for _, t := range targets {
		usage := fmt.Sprintf("%s the %s", verb, t.name)
		if short, ok := t.short.Get(); ok {
			cmd.Flags().BoolP(t.flag, short, false, usage)
		} else {
			cmd.Flags().Bool(t.flag, false, usage)
		}

		if t.hidden {
			lo.Must0(cmd.Flags().MarkHidden(t.flag))
		}
	}
}

// selectedPaths returns the targets whose flag is set on cmd.
func selectedPaths(cmd *cobra.Command, targets []pathTarget) []pathTarget {
	return lo.Filter(targets, func(t pathTarget, _ int) bool {
		return lo.Must(cmd.Flags().GetBool(t.flag))
	})
}
