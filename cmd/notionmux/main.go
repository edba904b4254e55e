// Command notionmux runs the request router and tiered read-cache
// between an MCP client and Notion's API: a fast, local, read-only path
// backed by a SQLite mirror and a response cache, falling back to (or
// deferring entirely to, for writes) a remote OAuth-capable subprocess
// backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/notionmux/notionmux/internal/logging"
)

var log = logging.For("main")

func main() {
	root := &cobra.Command{
		Use:   "notionmux",
		Short: "Router and tiered read-cache in front of Notion's MCP surface",
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newLoginCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
