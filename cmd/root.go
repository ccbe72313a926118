// Package cmd implements the command-line interface for emel.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/emeltv/emel/color"
	"github.com/emeltv/emel/config"
	"github.com/emeltv/emel/constant"
	"github.com/emeltv/emel/headless"
	"github.com/emeltv/emel/icon"
	"github.com/emeltv/emel/key"
	"github.com/emeltv/emel/log"
	"github.com/emeltv/emel/player"
	"github.com/emeltv/emel/style"
	"github.com/emeltv/emel/tui"
	"github.com/emeltv/emel/util"
	"github.com/emeltv/emel/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.SetOut(os.Stdout)

	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().StringP("url", "u", "", "HLS manifest address of the stream to play")
	lo.Must0(viper.BindPFlag(key.StreamURL, rootCmd.Flags().Lookup("url")))

	rootCmd.Flags().Int("width", 0, "Width of the display rectangle in pixels")
	lo.Must0(viper.BindPFlag(key.DisplayWidth, rootCmd.Flags().Lookup("width")))

	rootCmd.Flags().Int("height", 0, "Height of the display rectangle in pixels")
	lo.Must0(viper.BindPFlag(key.DisplayHeight, rootCmd.Flags().Lookup("height")))

	rootCmd.Flags().StringP("player", "P", "", "Media player executable speaking the mpv JSON-IPC protocol")
	lo.Must0(viper.BindPFlag(key.PlayerBinary, rootCmd.Flags().Lookup("player")))

	rootCmd.Flags().Bool("headless", false, "Run without the terminal UI; signals act as the remote control")
}

// rootCmd defines the entry point for the emel application.
var rootCmd = &cobra.Command{
	Use:   constant.Emel,
	Short: "Plays the Emel TV live stream and keeps the player in step with the remote",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Plays the Emel TV live stream and keeps the player in step with the remote"),
	Example: `  emel
  emel --url https://example.com/live/index.m3u8 --width 1280 --height 720
  emel --headless &
  kill -USR1 $!   # hidden: the player is released
  kill -USR2 $!   # visible: playback restarts`,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		binary := viper.GetString(key.PlayerBinary)
		CheckDependencies(binary)

		rect := config.DisplayRect()
		handleErr(rect.Validate())

		mpv := player.NewMPV(player.Options{
			Binary:         binary,
			SocketDir:      where.Sockets(),
			PrepareTimeout: config.PrepareTimeout(),
		})

		// without a terminal there is nothing to draw on, fall back to signals
		if lo.Must(cmd.Flags().GetBool("headless")) || !util.IsTerminal(os.Stdout) {
			handleErr(headless.Run(cmd.Context(), mpv, &headless.Options{
				URL:        config.StreamURL(),
				Rect:       rect,
				StartDelay: config.StartDelay(),
			}))
			return
		}

		handleErr(tui.Run(cmd.Context(), mpv, &tui.Options{
			URL:        config.StreamURL(),
			Rect:       rect,
			StartDelay: config.StartDelay(),
		}))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
