package main

import (
	"fmt"
	"os"

	"github.com/agentflare-ai/jsondelta/internal/cli"
)

func main() {
	if err := cli.Execute(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCodeForError(err))
	}
}
