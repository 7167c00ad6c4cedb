package natsgath

import (
	"github.com/nats-io/nats.go"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

type natsGatherer struct {
	nc           *nats.Conn
	subject      string
	submissionID int64
}

// StartEvaluation implements judge.ProgressGatherer.
func (s *natsGatherer) StartEvaluation() {
	s.send(api.NewStartedEvent(s.submissionID, string(statuses.Running)))
}

// ReportTestCase implements judge.ProgressGatherer.
func (s *natsGatherer) ReportTestCase(res api.TestCaseResultEvent) {
	s.send(api.NewTestCaseEvent(s.submissionID, string(statuses.Running), res))
}

// FinishEvaluation implements judge.ProgressGatherer.
func (s *natsGatherer) FinishEvaluation(status statuses.Status, message string) {
	s.send(api.NewFinishedEvent(s.submissionID, string(status), message))
}
