package main

import (
	"github.com/spf13/cobra"

	"github.com/myfavshrimp/arc/internal/arcerr"
	"github.com/myfavshrimp/arc/internal/scaffold"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Scaffold a new arc project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			if err := scaffold.Init(path); err != nil {
				return arcerr.New(arcerr.Config, "scaffolding project", err, map[string]any{"path": path})
			}
			cmd.Printf("initialized arc project in %s\n", path)
			return nil
		},
	}
}
