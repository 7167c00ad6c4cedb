package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v3"

	"github.com/tukey-oj/evaluator/internal/database"
	"github.com/tukey-oj/evaluator/internal/environment"
	"github.com/tukey-oj/evaluator/internal/queue"
)

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "create a submission and enqueue its evaluation",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user-id", Required: true},
			&cli.Int64Flag{Name: "problem-id", Required: true},
			&cli.StringFlag{Name: "language", Value: "python"},
			&cli.StringFlag{Name: "code-file", Usage: "path to the solution source"},
			&cli.StringFlag{Name: "code-b64", Usage: "base64-encoded solution source, as sent by the web client"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			code, err := readCode(cmd)
			if err != nil {
				return err
			}
			return submit(ctx,
				cmd.Int64("user-id"), cmd.Int64("problem-id"),
				cmd.String("language"), code, cmd.Root().Bool("debug"))
		},
	}
}

func readCode(cmd *cli.Command) (string, error) {
	if path := cmd.String("code-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read code file: %w", err)
		}
		return string(raw), nil
	}
	if b64 := cmd.String("code-b64"); b64 != "" {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
		if err != nil {
			return "", fmt.Errorf("failed to decode base64 code: %w", err)
		}
		return string(raw), nil
	}
	return "", fmt.Errorf("one of --code-file or --code-b64 is required")
}

func submit(ctx context.Context, userID, problemID int64, language, code string, debug bool) error {
	log := newLogger(debug)
	env := environment.ReadEnvConfig()

	db, err := sqlx.ConnectContext(ctx, "postgres", env.SqlxConnString)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	if env.TaskQueueURL == "" {
		return fmt.Errorf("TASK_QUEUE_URL is not set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(env.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	store := database.NewStore(db)
	submissionID, err := store.InsertSubmission(ctx, userID, problemID, language, code)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	publisher := queue.NewPublisher(sqs.NewFromConfig(awsCfg), env.TaskQueueURL)
	evalUuid, err := publisher.Enqueue(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to enqueue submission %d: %w", submissionID, err)
	}

	log.Info("submission enqueued", "submission_id", submissionID, "eval_uuid", evalUuid)
	fmt.Println(submissionID)
	return nil
}
