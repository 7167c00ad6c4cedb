package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/internal/queue"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// fakeClient feeds a fixed batch of messages, then cancels the context
// so Run returns.
type fakeClient struct {
	cancel   context.CancelFunc
	messages []types.Message

	deleted    []string
	retried    []string
	retryDelay int32
}

func (f *fakeClient) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if len(f.messages) == 0 {
		f.cancel()
		return nil, ctx.Err()
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return &sqs.ReceiveMessageOutput{Messages: []types.Message{msg}}, nil
}

func (f *fakeClient) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeClient) ChangeMessageVisibility(_ context.Context, params *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.retried = append(f.retried, aws.ToString(params.ReceiptHandle))
	f.retryDelay = params.VisibilityTimeout
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

type statusRecorder struct {
	updates map[int64]statuses.Status
}

func (r *statusRecorder) UpdateSubmissionStatus(_ context.Context, id int64, status statuses.Status) error {
	if r.updates == nil {
		r.updates = map[int64]statuses.Status{}
	}
	r.updates[id] = status
	return nil
}

func taskMessage(t *testing.T, submissionID int64, handle string, receiveCount string) types.Message {
	t.Helper()
	body, err := json.Marshal(api.EvalRequest{EvalUuid: "e-1", SubmissionID: submissionID})
	require.NoError(t, err)
	msg := types.Message{
		Body:          aws.String(string(body)),
		ReceiptHandle: aws.String(handle),
	}
	if receiveCount != "" {
		msg.Attributes = map[string]string{
			string(types.MessageSystemAttributeNameApproximateReceiveCount): receiveCount,
		}
	}
	return msg
}

func runConsumer(t *testing.T, client *fakeClient, evaluate queue.EvaluateFunc, failures *statusRecorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	client.cancel = cancel
	c := queue.NewConsumer(slog.New(slog.DiscardHandler), client, "http://localhost/queue", evaluate, failures)
	err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumerDeletesOnSuccess(t *testing.T) {
	client := &fakeClient{messages: []types.Message{taskMessage(t, 42, "h1", "1")}}
	var evaluated []int64
	evaluate := func(_ context.Context, id int64) (statuses.Status, error) {
		evaluated = append(evaluated, id)
		return statuses.Accepted, nil
	}

	runConsumer(t, client, evaluate, &statusRecorder{})

	assert.Equal(t, []int64{42}, evaluated)
	assert.Equal(t, []string{"h1"}, client.deleted)
	assert.Empty(t, client.retried)
}

func TestConsumerDeletesOnTerminalVerdict(t *testing.T) {
	client := &fakeClient{messages: []types.Message{taskMessage(t, 42, "h1", "1")}}
	evaluate := func(context.Context, int64) (statuses.Status, error) {
		return statuses.WrongAnswer, nil
	}

	runConsumer(t, client, evaluate, &statusRecorder{})

	assert.Equal(t, []string{"h1"}, client.deleted, "rejected verdicts are terminal, not retryable")
}

func TestConsumerSchedulesRetry(t *testing.T) {
	client := &fakeClient{messages: []types.Message{taskMessage(t, 42, "h1", "2")}}
	failures := &statusRecorder{}
	evaluate := func(context.Context, int64) (statuses.Status, error) {
		return statuses.Error, errors.New("db unreachable")
	}

	runConsumer(t, client, evaluate, failures)

	assert.Empty(t, client.deleted, "message stays queued for the next attempt")
	assert.Equal(t, []string{"h1"}, client.retried)
	assert.EqualValues(t, 5, client.retryDelay)
	assert.Empty(t, failures.updates)
}

func TestConsumerRetriesThreeTimesBeforeGivingUp(t *testing.T) {
	// receive counts 1 through 3 are the first delivery and the first
	// two retries; each failure schedules another attempt, so the
	// third retry (receive 4) still runs
	for _, count := range []string{"1", "2", "3"} {
		client := &fakeClient{messages: []types.Message{taskMessage(t, 42, "h1", count)}}
		failures := &statusRecorder{}
		evaluate := func(context.Context, int64) (statuses.Status, error) {
			return statuses.Error, errors.New("db unreachable")
		}

		runConsumer(t, client, evaluate, failures)

		assert.Empty(t, client.deleted, "receive %s must stay queued", count)
		assert.Equal(t, []string{"h1"}, client.retried, "receive %s must reschedule", count)
		assert.Empty(t, failures.updates, "receive %s must not mark failure", count)
	}
}

func TestConsumerMarksFailureAfterMaxRetries(t *testing.T) {
	// receive 4 is the third retry; when it fails too, the task is done
	client := &fakeClient{messages: []types.Message{taskMessage(t, 42, "h1", "4")}}
	failures := &statusRecorder{}
	evaluate := func(context.Context, int64) (statuses.Status, error) {
		return statuses.Error, errors.New("db unreachable")
	}

	runConsumer(t, client, evaluate, failures)

	assert.Equal(t, statuses.EvaluationFailed, failures.updates[42])
	assert.Equal(t, []string{"h1"}, client.deleted)
	assert.Empty(t, client.retried)
}

func TestConsumerDropsMalformedMessage(t *testing.T) {
	client := &fakeClient{messages: []types.Message{{
		Body:          aws.String("{not json"),
		ReceiptHandle: aws.String("h1"),
	}}}
	evaluate := func(context.Context, int64) (statuses.Status, error) {
		t.Fatal("evaluate must not run for malformed messages")
		return "", nil
	}

	runConsumer(t, client, evaluate, &statusRecorder{})

	assert.Equal(t, []string{"h1"}, client.deleted)
}

func TestConsumerMissingReceiveCountDefaultsToFirstAttempt(t *testing.T) {
	client := &fakeClient{messages: []types.Message{taskMessage(t, 42, "h1", "")}}
	failures := &statusRecorder{}
	evaluate := func(context.Context, int64) (statuses.Status, error) {
		return statuses.Error, errors.New("transient")
	}

	runConsumer(t, client, evaluate, failures)

	assert.Equal(t, []string{"h1"}, client.retried, "first attempt retries instead of failing")
	assert.Empty(t, failures.updates)
}
