package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/tranche/internal/app"
	"github.com/alexanderramin/tranche/internal/cli"
	"github.com/alexanderramin/tranche/internal/config"
	"github.com/alexanderramin/tranche/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Settings: defaults, then $TRANCHE_CONFIG if set, then TRANCHE_* variables.
	cfg, err := config.Load(os.Getenv("TRANCHE_CONFIG"), nil)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	root := cli.NewRootCmd(&cli.App{
		Projects:        rt.Projects,
		Accounts:        rt.Accounts,
		Outbox:          rt.Outbox,
		Config:          cfg,
		Logger:          logger,
		Metrics:         rt.Metrics.Handler(),
		Publisher:       rt.Publisher,
		Dispatcher:      rt.Dispatcher,
		DefaultIdentity: os.Getenv("TRANCHE_IDENTITY"),
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	})
	return root.Execute()
}
