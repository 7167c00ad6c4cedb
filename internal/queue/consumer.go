// Package queue consumes evaluation tasks from SQS. One message maps
// to one submission; the retry policy lives here, not in the judge.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

const (
	// MaxRetries is how many times a failed evaluation is re-driven
	// after its first delivery. Once the receive count exceeds
	// MaxRetries+1 the submission is marked Evaluation Failed.
	MaxRetries = 3

	// RetryDelay is how long a failed message stays invisible before
	// the next attempt.
	RetryDelay = 5 * time.Second

	waitTimeSeconds = 10
)

// EvaluateFunc runs one evaluation. A nil error means the verdict is
// terminal and the task is done; a non-nil error asks for a retry.
type EvaluateFunc func(ctx context.Context, submissionID int64) (statuses.Status, error)

// FailureMarker records a submission that exhausted its retries.
type FailureMarker interface {
	UpdateSubmissionStatus(ctx context.Context, id int64, status statuses.Status) error
}

// Client is the slice of the SQS API the consumer uses.
type Client interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

type Consumer struct {
	log      *slog.Logger
	client   Client
	queueURL string
	evaluate EvaluateFunc
	failures FailureMarker

	// inFlight guards against SQS at-least-once delivery handing the
	// same submission to two goroutines of this worker.
	inFlight *xsync.MapOf[int64, struct{}]
}

func NewConsumer(log *slog.Logger, client Client, queueURL string, evaluate EvaluateFunc, failures FailureMarker) *Consumer {
	return &Consumer{
		log:      log,
		client:   client,
		queueURL: queueURL,
		evaluate: evaluate,
		failures: failures,
		inFlight: xsync.NewMapOf[int64, struct{}](),
	}
}

// Run polls until ctx is cancelled. Receive errors back off and keep
// polling.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer started", "queue_url", c.queueURL)
	for {
		output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(c.queueURL),
			MaxNumberOfMessages:   1,
			WaitTimeSeconds:       waitTimeSeconds,
			MessageAttributeNames: []string{"All"},
			AttributeNames:        []types.QueueAttributeName{types.QueueAttributeNameAll},
		})
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped")
				return ctx.Err()
			}
			c.log.Error("failed to receive messages", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		for _, message := range output.Messages {
			c.handleMessage(ctx, message)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, message types.Message) {
	var req api.EvalRequest
	if err := json.Unmarshal([]byte(aws.ToString(message.Body)), &req); err != nil {
		c.log.Error("dropping malformed message", "error", err, "body", aws.ToString(message.Body))
		c.deleteMessage(ctx, message)
		return
	}
	log := c.log.With("submission_id", req.SubmissionID, "eval_uuid", req.EvalUuid)

	if _, loaded := c.inFlight.LoadOrStore(req.SubmissionID, struct{}{}); loaded {
		// duplicate delivery; the visibility timeout will resurface
		// the message if the in-flight evaluation dies
		log.Warn("submission already in flight, skipping duplicate delivery")
		return
	}
	defer c.inFlight.Delete(req.SubmissionID)

	attempt := receiveCount(message)
	log.Info("evaluation task received", "attempt", attempt)

	status, err := c.evaluate(ctx, req.SubmissionID)
	if err == nil {
		log.Info("evaluation task done", "status", status)
		c.deleteMessage(ctx, message)
		return
	}

	if attempt > MaxRetries {
		log.Error("retries exhausted, marking submission failed", "attempt", attempt, "error", err)
		if err := c.failures.UpdateSubmissionStatus(ctx, req.SubmissionID, statuses.EvaluationFailed); err != nil {
			log.Error("failed to mark submission failed", "error", err)
		}
		c.deleteMessage(ctx, message)
		return
	}

	log.Warn("evaluation failed, scheduling retry", "attempt", attempt, "delay", RetryDelay, "error", err)
	_, cmvErr := c.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(c.queueURL),
		ReceiptHandle:     message.ReceiptHandle,
		VisibilityTimeout: int32(RetryDelay.Seconds()),
	})
	if cmvErr != nil && !errors.Is(cmvErr, context.Canceled) {
		log.Error("failed to schedule retry", "error", cmvErr)
	}
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		c.log.Error("failed to delete message", "error", err)
	}
}

// receiveCount reads the delivery attempt number SQS tracks for us.
func receiveCount(message types.Message) int {
	raw, ok := message.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
