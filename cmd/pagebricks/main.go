// Command pagebricks renders content pages, serves them over HTTP and
// maintains the page cache from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gaborage/pagebricks/internal/commands"
)

var version = "dev" // set with -ldflags at build time

func main() {
	if err := commands.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
