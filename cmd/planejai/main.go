package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"planejai/internal/api"
	"planejai/internal/cli"
	applog "planejai/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		cli.Usage(os.Stdout)
		return 0
	}

	cli.LoadEnvFile()

	bootstrap := applog.New(applog.DefaultConfig())
	cfg, err := cli.LoadAndValidateConfig(bootstrap)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger := cli.SetupLogger(cfg, os.Stderr)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger, os.Stderr)
	if err != nil {
		logger.Error("Failed to start", applog.FieldError, err.Error())
		fmt.Fprintln(os.Stderr, "planejai:", err)
		return 1
	}
	defer app.Close()

	err = cli.Run(ctx, app, args, os.Stdin, os.Stdout)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(os.Stderr, "planejai:", err)
		return 2
	case errors.Is(err, api.ErrSessionExpired):
		// The navigator already printed the login hint.
		return 1
	default:
		fmt.Fprintln(os.Stderr, "planejai:", err)
		return 1
	}
}
