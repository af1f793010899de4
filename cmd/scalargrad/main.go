// Command scalargrad evaluates scalar computation graphs and their gradients.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/scalargrad/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands print their own ExitError output; anything else
		// (bad flags, wrong arg count) still needs reporting.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
