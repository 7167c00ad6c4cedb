// Package behave replays scenario files against the real runner. A
// scenario bundles code, test cases and the verdicts they must
// produce; the check command uses it to validate a deployment without
// touching the database or the queue.
package behave

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/internal/compare"
	"github.com/tukey-oj/evaluator/internal/runner"
	"github.com/tukey-oj/evaluator/internal/value"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// SpecTest is a single test case in the scenario file.
type SpecTest struct {
	In  string `toml:"in"`
	Ans string `toml:"ans"`
}

// SpecLimits overrides resource limits for one scenario. Zero values
// fall back to the defaults.
type SpecLimits struct {
	WallS    float64 `toml:"wall_s"`
	MemoryMB int     `toml:"memory_mb"`
}

// SpecExpect describes the expected overall status and, optionally,
// per-test verdicts.
type SpecExpect struct {
	Status      string   `toml:"status"`
	TestResults []string `toml:"test_results"`
}

type specScenario struct {
	Description string     `toml:"description"`
	Code        string     `toml:"code"`
	Language    string     `toml:"language"`
	Tests       []SpecTest `toml:"tests"`
	Limits      SpecLimits `toml:"limits"`
	Expect      SpecExpect `toml:"expect"`
}

type specRoot struct {
	Scenarios []specScenario `toml:"scenarios"`
}

// Scenario is a runnable case converted from TOML.
type Scenario struct {
	Name     string
	Code     string
	Language string
	Tests    []SpecTest
	Limits   runner.Limits
	Expect   SpecExpect
}

// Parse reads a scenario TOML file.
func Parse(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) ([]Scenario, error) {
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	scenarios := make([]Scenario, 0, len(root.Scenarios))
	for i, spec := range root.Scenarios {
		if strings.TrimSpace(spec.Code) == "" {
			return nil, fmt.Errorf("scenario %d (%q) has no code", i+1, spec.Description)
		}
		if len(spec.Tests) == 0 {
			return nil, fmt.Errorf("scenario %d (%q) has no tests", i+1, spec.Description)
		}
		if len(spec.Expect.TestResults) != 0 && len(spec.Expect.TestResults) != len(spec.Tests) {
			return nil, fmt.Errorf("scenario %d (%q): %d expected verdicts for %d tests",
				i+1, spec.Description, len(spec.Expect.TestResults), len(spec.Tests))
		}

		language := spec.Language
		if language == "" {
			language = "python"
		}
		limits := runner.DefaultLimits()
		if spec.Limits.WallS > 0 {
			limits.WallClockSeconds = spec.Limits.WallS
		}
		if spec.Limits.MemoryMB > 0 {
			limits.MemoryMB = spec.Limits.MemoryMB
		}

		scenarios = append(scenarios, Scenario{
			Name:     spec.Description,
			Code:     spec.Code,
			Language: language,
			Tests:    spec.Tests,
			Limits:   limits,
			Expect:   spec.Expect,
		})
	}
	return scenarios, nil
}

// ProgressGatherer mirrors the judge's gatherer so the terminal
// reporter serves both.
type ProgressGatherer interface {
	StartEvaluation()
	ReportTestCase(res api.TestCaseResultEvent)
	FinishEvaluation(status statuses.Status, message string)
}

// Outcome is the result of replaying one scenario.
type Outcome struct {
	Scenario Scenario
	Status   statuses.Status
	Verdicts []statuses.Status
	Mismatch string
}

// Passed reports whether the scenario produced everything it expected.
func (o Outcome) Passed() bool { return o.Mismatch == "" }

// Run replays one scenario, streaming progress to the gatherer.
func Run(ctx context.Context, log *slog.Logger, sc Scenario, gath ProgressGatherer) (Outcome, error) {
	run := runner.NewPythonRunner(log, sc.Limits)
	if !strings.EqualFold(strings.TrimSpace(sc.Language), run.Language()) {
		return Outcome{}, fmt.Errorf("unsupported scenario language: %s", sc.Language)
	}
	cmp := compare.New()

	outcome := Outcome{Scenario: sc, Verdicts: make([]statuses.Status, 0, len(sc.Tests))}
	gath.StartEvaluation()

	allPassed := true
	for i, tc := range sc.Tests {
		input := value.Parse(tc.In)
		expected := value.Parse(tc.Ans)

		verdict := statuses.Error
		event := api.TestCaseResultEvent{
			TestCaseNumber: i + 1,
			TotalTestCases: len(sc.Tests),
			Input:          tc.In,
			Expected:       expected.Canonical(),
		}

		res, err := run.Run(ctx, sc.Code, input)
		if err != nil {
			event.ErrorMessage = err.Error()
		} else {
			event.ExecutionTime = res.ExecutionTime
			event.PeakMemory = res.PeakMemory
			event.ErrorMessage = res.ErrorMessage
			switch res.Kind {
			case runner.KindOK:
				event.Output = res.Value.Canonical()
				if cmp.Passes(res.Value, expected) {
					verdict = statuses.Passed
				} else {
					verdict = statuses.Failed
				}
			case runner.KindTimeLimitExceeded:
				verdict = statuses.TimeLimitExceeded
			case runner.KindMemoryLimitExceeded:
				verdict = statuses.MemoryLimitExceeded
			case runner.KindNoEntryPoint:
				verdict = statuses.CompilationError
			default:
				verdict = statuses.RuntimeError
			}
		}
		if verdict != statuses.Passed {
			allPassed = false
		}
		event.Status = string(verdict)
		outcome.Verdicts = append(outcome.Verdicts, verdict)
		gath.ReportTestCase(event)
	}

	outcome.Status = statuses.WrongAnswer
	if allPassed {
		outcome.Status = statuses.Accepted
	}
	gath.FinishEvaluation(outcome.Status, "")

	outcome.Mismatch = matchExpectation(outcome)
	return outcome, nil
}

func matchExpectation(o Outcome) string {
	exp := o.Scenario.Expect
	if exp.Status != "" && exp.Status != string(o.Status) {
		return fmt.Sprintf("status %s, want %s", o.Status, exp.Status)
	}
	for i, want := range exp.TestResults {
		if i >= len(o.Verdicts) {
			break
		}
		if want != string(o.Verdicts[i]) {
			return fmt.Sprintf("test %d verdict %s, want %s", i+1, o.Verdicts[i], want)
		}
	}
	return ""
}
