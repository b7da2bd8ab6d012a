package main

import (
	"errors"
	"fmt"
	"os"

	"ytbatch/internal/batch"
	"ytbatch/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		if errors.Is(err, batch.ErrRunFailed) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
