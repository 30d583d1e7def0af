// Command hydrate records water intake, syncs it to the collector and shows
// drink reminders.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hydrate/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hydrate:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
