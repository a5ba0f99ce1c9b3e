// Command arc evaluates an arc.lua project against a chosen set of systems
// and tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/myfavshrimp/arc/internal/arcerr"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	var noColor bool

	root := &cobra.Command{
		Use:           "arc",
		Short:         "Run infrastructure automation tasks against local and remote systems",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newInitCmd())
	root.AddCommand(newRunCmd(&noColor))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, arcerr.Format(err))
		os.Exit(arcerr.ExitCode(err))
	}
}
