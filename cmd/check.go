package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/emeltv/emel/color"
	"github.com/emeltv/emel/config"
	"github.com/emeltv/emel/constant"
	"github.com/emeltv/emel/icon"
	"github.com/emeltv/emel/key"
	"github.com/emeltv/emel/network"
	"github.com/emeltv/emel/style"
	"github.com/emeltv/emel/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CheckDependencies exits with an install hint when the player binary is not on PATH.
func CheckDependencies(binary string) {
	if _, err := exec.LookPath(binary); err != nil {
		printMissingDependencyError(binary)
		os.Exit(1)
	}
}

func installHint(dep string) string {
	if dep != "mpv" {
		return ""
	}

	switch runtime.GOOS {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	}
	return ""
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(color.Text).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep))

	suggestion := ""
	if hint := installHint(dep); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Orange).Bold(true).Render(hint))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkCmd verifies the player binary and the stream origin without starting playback.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the player is installed and the stream is reachable",
	Run: func(cmd *cobra.Command, args []string) {
		binary := viper.GetString(key.PlayerBinary)
		path, err := exec.LookPath(binary)
		if err != nil {
			printMissingDependencyError(binary)
			os.Exit(1)
		}
		fmt.Printf("%s player %s\n", icon.Get(icon.Success), style.Faint(path))

		url := config.StreamURL()
		e := util.PrintErasable(fmt.Sprintf("%s Probing %s...", icon.Get(icon.Progress), url))
		manifest, err := network.FetchManifest(cmd.Context(), url)
		e()
		handleErr(err)

		fmt.Printf(
			"%s stream %s %s\n",
			icon.Get(icon.Success),
			style.Fg(color.Yellow)(url),
			style.Faint(describeManifest(manifest)),
		)
	},
}

func describeManifest(m network.Manifest) string {
	kind := lo.Ternary(m.Live, "live", "on demand")
	if m.Variants > 0 {
		return fmt.Sprintf("(%s, %d variants)", kind, m.Variants)
	}
	return fmt.Sprintf("(%s, %d segments)", kind, m.Segments)
}
