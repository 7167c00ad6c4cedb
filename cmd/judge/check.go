package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/tukey-oj/evaluator/internal/behave"
	"github.com/tukey-oj/evaluator/internal/gatherer/termgath"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "replay a scenario file against the local runner",
		ArgsUsage: "<scenarios.toml>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one scenario file")
			}
			return check(ctx, cmd.Args().First(), cmd.Root().Bool("debug"))
		},
	}
}

func check(ctx context.Context, path string, debug bool) error {
	log := newLogger(debug)

	scenarios, err := behave.Parse(path)
	if err != nil {
		return err
	}

	failed := 0
	for i, sc := range scenarios {
		fmt.Printf("[%d/%d] %s\n", i+1, len(scenarios), sc.Name)
		outcome, err := behave.Run(ctx, log, sc, termgath.New(int64(i+1)))
		if err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		if !outcome.Passed() {
			color.Red("  MISMATCH: %s", outcome.Mismatch)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
	}
	color.Green("all %d scenarios passed", len(scenarios))
	return nil
}
