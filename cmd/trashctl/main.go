// Command trashctl inspects and manages the recycle bin from a terminal.
// It runs the lifecycle service in-process against the configured storage.
package main

import (
	"fmt"
	"os"

	"recyclebin/cmd/trashctl/commands"
)

func main() {
	if err := commands.New(commands.Options{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
