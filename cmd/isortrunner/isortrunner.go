package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"aspect.build/isort/internal/logger"
	"aspect.build/isort/isort/environ"
	"aspect.build/isort/isort/rlocation"
	"aspect.build/isort/isort/runner"
)

func main() {
	if err := mainErr(); err != nil {
		var failure *runner.ToolFailure
		if errors.As(err, &failure) {
			fmt.Fprintln(os.Stderr, failure.Output)
			os.Exit(failure.ExitCode)
		}
		logger.Errorf("failed with error %v", err)
		os.Exit(1)
	}
}

func mainErr() error {
	env, err := environ.Load()
	if err != nil {
		return err
	}
	logger.Configure(os.Stderr, env.Get(environ.RunnerLogLevel))

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate the runner executable: %w", err)
	}

	r := runner.New(env, self)
	if err := r.CheckRecursion(); err != nil {
		return err
	}

	resolver := rlocation.NewResolver(env)
	args, err := runner.CommandLine(env, resolver, os.Args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := runner.NewCommand(resolver, r.Run)
	cmd.SetArgs(append([]string{}, args...))
	return cmd.ExecuteContext(ctx)
}
