package main

import (
	"errors"
	"os"

	"migrator/internal/cli"
	"migrator/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		ui.ErrorMsg("%v", err)
		if errors.Is(err, cli.ErrAborted) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
