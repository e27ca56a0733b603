package main

import (
	"os"

	"github.com/ehsaniara/launchlet/internal/launchlet/cli"
)

func main() {
	os.Exit(cli.Execute())
}
