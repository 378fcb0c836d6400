// ABOUTME: Entry point for the contactsync CLI
// ABOUTME: Hands off to the cobra command tree and maps errors to exit codes
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/harperreed/contactsync/cli"
)

const version = "0.1.0"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
