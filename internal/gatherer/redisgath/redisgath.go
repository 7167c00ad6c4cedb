// Package redisgath streams progress events over Redis pub/sub. The
// web frontend subscribes to the solution_<id> channel and forwards
// every message to the user's websocket.
package redisgath

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

type redisGatherer struct {
	rdb          *redis.Client
	channel      string
	submissionID int64
}

func New(rdb *redis.Client, submissionID int64) *redisGatherer {
	return &redisGatherer{
		rdb:          rdb,
		channel:      fmt.Sprintf("solution_%d", submissionID),
		submissionID: submissionID,
	}
}

func (s *redisGatherer) StartEvaluation() {
	s.send(api.NewStartedEvent(s.submissionID, string(statuses.Running)))
}

func (s *redisGatherer) ReportTestCase(res api.TestCaseResultEvent) {
	s.send(api.NewTestCaseEvent(s.submissionID, string(statuses.Running), res))
}

func (s *redisGatherer) FinishEvaluation(status statuses.Status, message string) {
	s.send(api.NewFinishedEvent(s.submissionID, string(status), message))
}

func (s *redisGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal event: %v", err)
		return
	}

	if err := s.rdb.Publish(context.Background(), s.channel, b).Err(); err != nil {
		log.Printf("failed to publish event to redis: %v", err)
	}
}
