package cmd

import (
	"os"

	"github.com/emeltv/emel/color"
	"github.com/emeltv/emel/config"
	"github.com/emeltv/emel/style"
	"github.com/emeltv/emel/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only list variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only list variables that are not set")
	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
}

// envVars lists every environment variable emel reads, sorted.
func envVars() []string {
	vars := lo.Map(config.EnvExposed, func(k string, _ int) string {
		field := config.Default[k]
		return field.Env()
	})
	vars = append(vars, where.EnvConfigPath)
	slices.Sort(vars)
	return vars
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables emel reads and their values",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))
		name := style.New().Bold(true).Foreground(color.Purple).Render

		for _, env := range envVars() {
			value, present := os.LookupEnv(env)
			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Printf("%s=%s\n", name(env), lo.Ternary(present, style.Fg(color.Green)(value), style.Fg(color.Red)("unset")))
		}
	},
}
