package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"fines/internal/backend"
	"fines/internal/catalog"
	"fines/internal/cli"
	"fines/internal/core"
	"fines/internal/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, nil)

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	clock := core.NewSystemClock(loc)

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}

	backendCfg, err := backend.FromAppConfig(cfg, clock, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	// finesctl edits only the admin table, so no events are published.
	backendCfg.AMQPURL = ""

	ctx := context.Background()
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	}()

	root := cli.NewRootCommand(&cli.Ctl{Store: res.Store, Catalog: cat, Clock: clock})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
