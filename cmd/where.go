package cmd

import (
	"github.com/emeltv/emel/color"
	"github.com/emeltv/emel/style"
	"github.com/emeltv/emel/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whereCmd)
	bindPathFlags(whereCmd, pathTargets, "print")

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(pathTargets, func(t pathTarget, _ int) string {
		return t.flag
	})...)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Print where emel keeps its files",
	Run: func(cmd *cobra.Command, args []string) {
		if selected := selectedPaths(cmd, pathTargets); len(selected) > 0 {
			cmd.Println(selected[0].location())
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		visible := lo.Reject(pathTargets, func(t pathTarget, _ int) bool { return t.hidden })

		for i, t := range visible {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("%s %s\n", header(util.Capitalize(t.name)), style.Fg(color.Yellow)("--"+t.flag))
			cmd.Println(t.location())
		}
	},
}
