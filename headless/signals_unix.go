//go:build !windows

package headless

import (
	"os"
	"syscall"

	"github.com/emeltv/emel/controller"
)

var keys = map[os.Signal]int{
	syscall.SIGINT:  controller.KeyBack,
	syscall.SIGTERM: controller.KeyBack,
	syscall.SIGHUP:  controller.KeyStop,
}

// visibility maps signals to the hidden flag they report.
var visibility = map[os.Signal]bool{
	syscall.SIGUSR1: true,
	syscall.SIGUSR2: false,
}
