package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/birdayz/procnet/evaluator"
)

type checkResult struct {
	path       string
	err        error
	incomplete int
}

func (r checkResult) String() string {
	switch {
	case r.err != nil:
		return fmt.Sprintf("FAIL %s: %v", r.path, r.err)
	case r.incomplete > 0:
		return fmt.Sprintf("INCOMPLETE %s: %d errors", r.path, r.incomplete)
	default:
		return fmt.Sprintf("ok %s", r.path)
	}
}

func newCheckCmd(a *app) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "check <workspace>...",
		Short: "Load and evaluate workspaces concurrently and report failures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]checkResult, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, path := range args {
				g.Go(func() error {
					results[i] = a.check(ctx, path)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), r)
				if r.err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d workspaces failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Number of workspaces checked in parallel")
	return cmd
}

func (a *app) check(ctx context.Context, path string) checkResult {
	res := checkResult{path: path}
	ws, loaded, err := a.load(ctx, io.Discard, path, nil, false)
	if err != nil {
		res.err = err
		return res
	}
	res.incomplete = len(loaded.Errors)

	e := evaluator.New(ws.Network(), evaluator.WithLog(a.log))
	defer e.Close()
	pass, err := e.Evaluate(ctx)
	if err == nil {
		err = pass.Err()
	}
	res.err = err
	return res
}
