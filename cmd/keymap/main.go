package main

import (
	"context"
	"os"

	"github.com/psantana5/keymap/cmd/keymap/cmd"
	"github.com/psantana5/keymap/pkg/util"
)

func main() {
	info := util.NewInfo(os.Args[0])
	cmd.Execute(context.Background(), info)
	os.Exit(info.ExitStatus())
}
