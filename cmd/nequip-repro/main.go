// Command nequip-repro checks a deployed NequIP or Allegro model for
// agreement between LAMMPS and direct evaluation.
package main

import (
	"fmt"
	"os"

	"github.com/mstapelberg/pair-nequip-allegro/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
