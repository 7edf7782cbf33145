package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/birdayz/procnet/store"
	"github.com/birdayz/procnet/store/pebble"
	"github.com/birdayz/procnet/store/s3"
)

type Config struct {
	LogLevel     string      `yaml:"logLevel"`
	AutoEvaluate bool        `yaml:"autoEvaluate"`
	Store        StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	// Backend is one of memory, dir, pebble or s3.
	Backend string    `yaml:"backend"`
	Path    string    `yaml:"path"`
	S3      s3.Config `yaml:"s3"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{Store: StoreConfig{Backend: "memory"}}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemory(), nil
	case "dir":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store backend dir needs a path")
		}
		return store.NewDir(cfg.Path)
	case "pebble":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store backend pebble needs a path")
		}
		return pebble.Open(cfg.Path)
	case "s3":
		return s3.Open(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
