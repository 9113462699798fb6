package main

import (
	"os"

	"github.com/Last-emo-boy/github-bot/internal/cli"
)

func main() {
	cli.InitCLI()
	os.Exit(cli.ExecuteWithErrorCode(os.Args[1:]))
}
