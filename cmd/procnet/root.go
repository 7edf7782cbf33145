package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/birdayz/procnet/network"
	plog "github.com/birdayz/procnet/pkg/log"
	"github.com/birdayz/procnet/processors"
	"github.com/birdayz/procnet/workspace"
)

type app struct {
	cfg *Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		configPath string
		logLevel   string
		backend    string
		storePath  string
	)

	cmd := &cobra.Command{
		Use:          "procnet",
		Short:        "Evaluate processor network workspaces",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.Backend = backend
			}
			if cmd.Flags().Changed("store-path") {
				cfg.Store.Path = storePath
			}

			level, err := plog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			a.cfg = cfg
			a.log = plog.Slog(plog.NewWithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}, level))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&backend, "store", "memory", "Store backend (memory, dir, pebble, s3)")
	cmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Directory of the dir and pebble store backends")

	cmd.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newMigrateCmd(a),
		newStoreCmd(a),
	)
	return cmd
}

func (a *app) modules(out io.Writer) []workspace.Module {
	return []workspace.Module{processors.Module(out)}
}

// newWorkspace creates an empty network with all modules registered.
// Printers write to out.
func (a *app) newWorkspace(out io.Writer, opts ...workspace.Option) (*workspace.Manager, error) {
	modules := a.modules(out)
	reg, err := workspace.NewRegistry(modules...)
	if err != nil {
		return nil, err
	}
	net := network.New(
		network.WithLog(a.log),
		network.WithFactory(reg),
		network.WithIdentifierRegistry(network.NewIdentifierRegistry()),
	)
	opts = append([]workspace.Option{
		workspace.WithLog(a.log),
		workspace.WithModules(modules...),
	}, opts...)
	return workspace.New(net, opts...), nil
}
