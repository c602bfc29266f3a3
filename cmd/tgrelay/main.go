package main

import (
	"os"

	"github.com/tgrelay/tgrelay/internal/cli"
)

func main() {
	cli.InitCLI()
	os.Exit(cli.ExecuteWithErrorCode(os.Args[1:]))
}
