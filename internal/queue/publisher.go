package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/tukey-oj/evaluator/api"
)

// PublisherClient is the slice of the SQS API the publisher uses.
type PublisherClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher enqueues evaluation tasks. Used by the intake layer after
// the Pending row exists.
type Publisher struct {
	client   PublisherClient
	queueURL string
}

func NewPublisher(client PublisherClient, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// Enqueue sends one task and returns the evaluation run id.
func (p *Publisher) Enqueue(ctx context.Context, submissionID int64) (string, error) {
	req := api.EvalRequest{
		EvalUuid:     uuid.New().String(),
		SubmissionID: submissionID,
	}
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal eval request: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(b)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue evaluation task: %w", err)
	}
	return req.EvalUuid, nil
}
