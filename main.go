// Package main is the entry point for the emel player.
package main

import (
	"github.com/emeltv/emel/cmd"
	"github.com/emeltv/emel/config"
	"github.com/emeltv/emel/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
