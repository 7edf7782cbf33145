package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/birdayz/procnet/doc"
	"github.com/birdayz/procnet/evaluator"
	"github.com/birdayz/procnet/network"
	"github.com/birdayz/procnet/store"
	"github.com/birdayz/procnet/workspace"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		fromStore bool
		trace     bool
		saveKey   string
		sets      []string
	)
	cmd := &cobra.Command{
		Use:   "run <workspace>",
		Short: "Load a workspace and evaluate every sink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var s store.Store
			if fromStore || saveKey != "" {
				var err error
				if s, err = openStore(ctx, a.cfg.Store); err != nil {
					return err
				}
				defer s.Close()
			}
			ws, _, err := a.load(ctx, cmd.OutOrStdout(), args[0], s, fromStore)
			if err != nil {
				return err
			}

			opts := []evaluator.Option{
				evaluator.WithLog(a.log),
				evaluator.WithAutoEvaluate(a.cfg.AutoEvaluate),
				evaluator.WithContext(ctx),
			}
			if trace {
				opts = append(opts, evaluator.WithInterceptors(a.traceProcessor))
			}
			e := evaluator.New(ws.Network(), opts...)
			defer e.Close()

			for _, assignment := range sets {
				if err := setProperty(ws.Network(), assignment); err != nil {
					return err
				}
			}
			if saveKey != "" {
				if err := ws.SaveTo(ctx, saveKey); err != nil {
					return err
				}
			}

			pass, err := e.Evaluate(ctx)
			if err != nil {
				return err
			}
			a.log.Info("evaluated workspace",
				"processed", len(pass.Processed),
				"notReady", len(pass.NotReady),
				"failed", len(pass.Failed),
				"duration", pass.Duration,
			)
			return pass.Err()
		},
	}
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "Read the workspace from the configured store instead of a file")
	cmd.Flags().StringVar(&saveKey, "save", "", "Save the workspace with its property changes under this store key")
	cmd.Flags().BoolVar(&trace, "trace", false, "Log every processed processor with its duration")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a property before evaluating, as processor.property=value")
	return cmd
}

func (a *app) traceProcessor(ctx context.Context, p network.Processor, next func(context.Context) error) error {
	start := time.Now()
	err := next(ctx)
	a.log.Info("processed", "processor", p.AsProcessor().Identifier(), "duration", time.Since(start), "error", err)
	return err
}

// load reads a workspace from a file or, with fromStore, from s under the
// key src. A non-nil s becomes the store of the returned workspace.
func (a *app) load(ctx context.Context, out io.Writer, src string, s store.Store, fromStore bool) (*workspace.Manager, *workspace.LoadResult, error) {
	var opts []workspace.Option
	if s != nil {
		opts = append(opts, workspace.WithStore(s))
	}
	ws, err := a.newWorkspace(out, opts...)
	if err != nil {
		return nil, nil, err
	}

	if fromStore {
		res, err := ws.LoadFrom(ctx, src)
		return ws, res, err
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	res, err := ws.Load(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", src, err)
	}
	return ws, res, nil
}

// setProperty applies an assignment "processor.property=value". The value
// uses the property's text encoding.
func setProperty(n *network.ProcessorNetwork, assignment string) error {
	ref, value, ok := strings.Cut(assignment, "=")
	if !ok {
		return fmt.Errorf("invalid assignment %q: want processor.property=value", assignment)
	}
	procID, propID, ok := doc.SplitEndpoint(ref)
	if !ok {
		return fmt.Errorf("invalid property reference %q", ref)
	}
	p, ok := n.Processor(procID)
	if !ok {
		return fmt.Errorf("%w: %s", network.ErrProcessorNotFound, procID)
	}
	prop, ok := p.AsProcessor().Property(propID)
	if !ok {
		return fmt.Errorf("%w: %s", network.ErrPropertyNotFound, ref)
	}
	return prop.UnmarshalText([]byte(value))
}
