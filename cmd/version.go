package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/emeltv/emel/color"
	"github.com/emeltv/emel/constant"
	"github.com/emeltv/emel/key"
	"github.com/emeltv/emel/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print the version number only")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, build and player details",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		cmd.Println(style.Fg(color.Purple)("▇▇▇ " + constant.Emel))
		cmd.Println()

		for _, row := range versionRows(cmd.Context()) {
			cmd.Printf("  %s %s\n", style.Faint(fmt.Sprintf("%-12s", row.A)), style.Bold(row.B))
		}
	},
}

func versionRows(ctx context.Context) []lo.Tuple2[string, string] {
	orUnknown := func(s string) string {
		return lo.Ternary(strings.TrimSpace(s) == "", "unknown", strings.TrimSpace(s))
	}

	return []lo.Tuple2[string, string]{
		lo.T2("Version", constant.Version),
		lo.T2("Git Commit", orUnknown(constant.Revision)),
		lo.T2("Build Date", orUnknown(constant.BuiltAt)),
		lo.T2("Built By", orUnknown(constant.BuiltBy)),
		lo.T2("Platform", runtime.GOOS+"/"+runtime.GOARCH),
		lo.T2("Player", playerVersion(ctx, viper.GetString(key.PlayerBinary))),
	}
}

// playerVersion returns the first line of `<binary> --version`, or the binary name if it can't run.
func playerVersion(ctx context.Context, binary string) string {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return binary + " (not found)"
	}

	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	return lo.Ternary(len(line) == 0, binary, string(line))
}
