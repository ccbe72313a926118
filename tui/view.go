package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/emeltv/emel/avplay"
	"github.com/emeltv/emel/color"
	"github.com/emeltv/emel/constant"
	"github.com/emeltv/emel/icon"
	"github.com/emeltv/emel/style"
	"github.com/muesli/reflow/wrap"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (b *bubble) View() string {
	if b.exiting {
		return ""
	}

	var lines []string
	if b.initErr != nil {
		lines = b.viewError(b.initErr)
	} else if !b.hostReady {
		lines = []string{style.Title(constant.Emel), "", b.spinnerC.View() + " Waiting for the terminal"}
	} else {
		lines = b.viewPlayer()
	}

	lines = append(lines, "", b.helpC.View(b.keymap))
	return b.notifier.View(paddingStyle.Render(strings.Join(lines, "\n")))
}

func (b *bubble) viewPlayer() []string {
	state := b.ctrl.State()

	lines := []string{
		style.Title(constant.Emel),
		"",
		style.Faint("Stream ") + b.wrap(b.ctrl.URL()),
		style.Faint("Output ") + b.ctrl.Rect().String(),
		"",
		stateIcon(state) + " " + style.State(state),
	}

	switch {
	case b.ctrl.Hidden():
		lines = append(lines, style.Italic("Hidden, player released"))
	case state == avplay.StateReady:
		lines = append(lines, b.spinnerC.View()+" Preparing")
	}

	if err := b.ctrl.LastError(); err != nil {
		lines = append(lines, "", style.Fg(color.Red)(b.wrap(err.Error())))
	}

	return lines
}

func (b *bubble) viewError(err error) []string {
	return []string{
		style.ErrorTitle("Error"),
		"",
		icon.Get(icon.Fail) + " " + b.wrap(err.Error()),
	}
}

func (b *bubble) wrap(s string) string {
	if b.width <= 8 {
		return s
	}
	return wrap.String(s, b.width-8)
}

func stateIcon(s avplay.State) string {
	switch s {
	case avplay.StatePlaying:
		return icon.Get(icon.Play)
	case avplay.StatePaused:
		return icon.Get(icon.Pause)
	case avplay.StateReady:
		return icon.Get(icon.Progress)
	default:
		return icon.Get(icon.Stop)
	}
}
