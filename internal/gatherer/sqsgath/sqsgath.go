// Package sqsgath streams progress events to an SQS response queue.
// Deployments that bridge events into their own backend instead of
// subscribing to NATS or Redis consume this queue.
package sqsgath

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

type sqsGatherer struct {
	client       *sqs.Client
	queueURL     string
	submissionID int64
}

func New(client *sqs.Client, queueURL string, submissionID int64) *sqsGatherer {
	return &sqsGatherer{
		client:       client,
		queueURL:     queueURL,
		submissionID: submissionID,
	}
}

func (s *sqsGatherer) StartEvaluation() {
	s.send(api.NewStartedEvent(s.submissionID, string(statuses.Running)))
}

func (s *sqsGatherer) ReportTestCase(res api.TestCaseResultEvent) {
	s.send(api.NewTestCaseEvent(s.submissionID, string(statuses.Running), res))
}

func (s *sqsGatherer) FinishEvaluation(status statuses.Status, message string) {
	s.send(api.NewFinishedEvent(s.submissionID, string(status), message))
}

func (s *sqsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal event: %v", err)
		return
	}

	_, err = s.client.SendMessage(context.Background(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(b)),
	})
	if err != nil {
		log.Printf("failed to send event to response queue: %v", err)
	}
}
