// Package main is the entry point for the anilust application.
package main

import (
	"github.com/anilust-cli/anilust/cmd"
	"github.com/anilust-cli/anilust/config"
	"github.com/anilust-cli/anilust/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
