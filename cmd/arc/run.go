package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/myfavshrimp/arc/internal/arcerr"
	"github.com/myfavshrimp/arc/internal/arclog"
	"github.com/myfavshrimp/arc/internal/cli"
	"github.com/myfavshrimp/arc/internal/executor"
	"github.com/myfavshrimp/arc/internal/loader"
	"github.com/myfavshrimp/arc/internal/script"
	"github.com/myfavshrimp/arc/internal/selector"
	"github.com/myfavshrimp/arc/internal/transport"
)

func newRunCmd(noColor *bool) *cobra.Command {
	var (
		tags       []string
		allTags    bool
		systems    []string
		groups     []string
		allSystems bool
		noReqs     bool
		dryRun     bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select and execute tasks against the chosen systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			useColor := cli.ShouldUseColor(*noColor)
			log, err := arclog.New(logLevel, useColor)
			if err != nil {
				return arcerr.New(arcerr.Config, "configuring logger", err, nil)
			}
			defer log.Sync() //nolint:errcheck

			home, _ := os.UserHomeDir()
			project, err := loader.Load(".", home, version, log)
			if err != nil {
				return err
			}
			defer project.Close()

			filter := selector.Filter{
				Tags:       tags,
				AllTags:    allTags,
				Systems:    systems,
				Groups:     groups,
				AllSystems: allSystems,
				NoReqs:     noReqs,
			}
			result, err := selector.Select(project.Registry, filter)
			if err != nil {
				return arcerr.New(arcerr.Selection, "selecting tasks", err, nil)
			}

			pool := transport.NewPool(transport.DialSSH)
			defer pool.CloseAll()

			execPool := &executor.TransportPool{Registry: project.Registry, Transport: pool}
			inv := &script.Invoker{Host: project.Host}

			rep, err := executor.Run(context.Background(), project.Registry, result, execPool, inv, executor.Options{
				DryRun: dryRun,
				Logf: func(format string, fmtArgs ...any) {
					log.Info(fmt.Sprintf(format, fmtArgs...))
				},
			})
			rep.Render(cmd.OutOrStdout(), useColor)
			if err != nil {
				return arcerr.New(arcerr.Handler, "run aborted", err, nil)
			}
			if rep.Failed() {
				return arcerr.New(arcerr.Handler, "one or more tasks failed", nil, nil)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "select tasks by tag (repeatable)")
	cmd.Flags().BoolVar(&allTags, "all-tags", false, "select all tasks")
	cmd.Flags().StringSliceVarP(&systems, "system", "s", nil, "target a system by name (repeatable)")
	cmd.Flags().StringSliceVarP(&groups, "group", "g", nil, "target a group by name (repeatable)")
	cmd.Flags().BoolVar(&allSystems, "all-systems", false, "target every system")
	cmd.Flags().BoolVar(&noReqs, "no-reqs", false, "disable the requires-closure selection step")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "enumerate what would run without invoking handlers")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error")

	cmd.MarkFlagsMutuallyExclusive("tag", "all-tags")
	cmd.MarkFlagsOneRequired("system", "group", "all-systems")

	return cmd
}
