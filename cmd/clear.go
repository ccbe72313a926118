package cmd

import (
	"fmt"

	"github.com/emeltv/emel/filesystem"
	"github.com/emeltv/emel/icon"
	"github.com/emeltv/emel/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var clearTargets = lo.Filter(pathTargets, func(t pathTarget, _ int) bool { return t.clearable })

func init() {
	rootCmd.AddCommand(clearCmd)
	bindPathFlags(clearCmd, clearTargets, "clear")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear logs and stale player sockets",
	Run: func(cmd *cobra.Command, args []string) {
		selected := selectedPaths(cmd, clearTargets)
		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, t := range selected {
			name := util.Capitalize(t.name)
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), name))
			err := filesystem.Delete(t.location())
			erase()
			handleErr(err)
			cmd.Printf("%s %s cleared\n", icon.Get(icon.Success), name)
		}
	},
}
