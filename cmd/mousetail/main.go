package main

import (
	"os"

	"github.com/mousetail/mousetail/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
