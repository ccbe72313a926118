//go:build windows

package headless

import (
	"os"
	"syscall"

	"github.com/emeltv/emel/controller"
)

var keys = map[os.Signal]int{
	os.Interrupt:    controller.KeyBack,
	syscall.SIGTERM: controller.KeyBack,
}

// there are no user signals on windows; visibility never changes
var visibility = map[os.Signal]bool{}
