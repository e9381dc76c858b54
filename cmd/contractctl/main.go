package main

import (
	"fmt"
	"os"

	"contracts-backend/internal/bootstrap"
	"contracts-backend/internal/shared/config"
)

func main() {
	root := newRootCmd(func(configFile string) (*bootstrap.App, error) {
		var (
			cfg config.Config
			err error
		)
		if configFile != "" {
			cfg, err = config.LoadFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return bootstrap.Build(cfg)
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
