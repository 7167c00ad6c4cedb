// Package judge drives the evaluation of one submission: it fetches the
// submission and its test cases, runs the code against every case via
// the sandboxed runner, compares outputs, aggregates status, time and
// memory, persists results and streams progress events.
package judge

import (
	"log/slog"
	"time"

	"github.com/tukey-oj/evaluator/internal/compare"
	"github.com/tukey-oj/evaluator/internal/runner"
)

type Evaluator struct {
	log        *slog.Logger
	store      Store
	runners    *runner.Registry
	comparator *compare.Comparator
	gatherers  GathererFactory

	// now is swappable so streak tests can pin the clock
	now func() time.Time
}

func NewEvaluator(log *slog.Logger, store Store, runners *runner.Registry, gatherers GathererFactory) *Evaluator {
	return &Evaluator{
		log:        log,
		store:      store,
		runners:    runners,
		comparator: compare.New(),
		gatherers:  gatherers,
		now:        time.Now,
	}
}
