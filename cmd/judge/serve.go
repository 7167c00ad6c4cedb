package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/tukey-oj/evaluator/internal/database"
	"github.com/tukey-oj/evaluator/internal/environment"
	"github.com/tukey-oj/evaluator/internal/gatherer/natsgath"
	"github.com/tukey-oj/evaluator/internal/gatherer/redisgath"
	"github.com/tukey-oj/evaluator/internal/gatherer/sqsgath"
	"github.com/tukey-oj/evaluator/internal/judge"
	"github.com/tukey-oj/evaluator/internal/queue"
	"github.com/tukey-oj/evaluator/internal/runner"
	"github.com/tukey-oj/evaluator/internal/xdg"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the evaluation worker",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, cmd.Root().Bool("debug"))
		},
	}
}

func serve(ctx context.Context, debug bool) error {
	log := newLogger(debug)
	env := environment.ReadEnvConfig()

	db, err := sqlx.ConnectContext(ctx, "postgres", env.SqlxConnString)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	nc, err := nats.Connect(env.NatsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	if env.TaskQueueURL == "" {
		return fmt.Errorf("TASK_QUEUE_URL is not set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(env.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	workDir, err := xdg.RuntimeDir()
	if err != nil {
		return err
	}

	store := database.NewStore(db)
	runners := runner.NewRegistry(
		runner.NewPythonRunner(log, runner.DefaultLimits()).WithWorkDir(workDir),
	)
	sqsClient := sqs.NewFromConfig(awsCfg)
	gatherers := func(submissionID int64) judge.ProgressGatherer {
		sinks := judge.MultiGatherer{
			natsgath.New(nc, submissionID),
			redisgath.New(rdb, submissionID),
		}
		if env.ResponseQueueURL != "" {
			sinks = append(sinks, sqsgath.New(sqsClient, env.ResponseQueueURL, submissionID))
		}
		return sinks
	}
	evaluator := judge.NewEvaluator(log, store, runners, gatherers)

	consumer := queue.NewConsumer(log, sqsClient, env.TaskQueueURL, evaluator.Evaluate, store)
	return consumer.Run(ctx)
}
