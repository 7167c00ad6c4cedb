// Package runner executes one unit of untrusted submitted code against
// one input value under wall-clock and memory ceilings. Each supported
// language plugs in behind the Runner interface; the evaluation loop
// never depends on how a particular language isolates its sandbox.
package runner

import (
	"context"
	"strings"

	"github.com/tukey-oj/evaluator/internal/value"
)

// ResultKind classifies the outcome of a single invocation. Everything
// here is a structured result, not an error: only infrastructure
// failures (work dir creation, harness I/O) surface as Go errors.
type ResultKind int

const (
	KindOK ResultKind = iota
	KindTimeLimitExceeded
	KindMemoryLimitExceeded
	KindRuntimeError
	KindNoEntryPoint
	KindParameterMismatch
)

func (k ResultKind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindTimeLimitExceeded:
		return "time limit exceeded"
	case KindMemoryLimitExceeded:
		return "memory limit exceeded"
	case KindRuntimeError:
		return "runtime error"
	case KindNoEntryPoint:
		return "no entry point"
	case KindParameterMismatch:
		return "parameter mismatch"
	}
	return "unknown"
}

// Result is the outcome of running the entry point once.
type Result struct {
	Kind ResultKind

	// Value is the returned value normalized for comparison: scalars
	// are wrapped into a one-element sequence. Only set for KindOK.
	Value value.Value

	// ErrorMessage carries the failure detail for non-OK kinds.
	ErrorMessage string

	// ExecutionTime is wall time of the invocation in seconds,
	// PeakMemory the peak allocation in MB. Both are nil when the
	// measurement never completed (timeouts, memory kills).
	ExecutionTime *float64
	PeakMemory    *float64
}

// Limits bound a single invocation.
type Limits struct {
	WallClockSeconds float64
	MemoryMB         int
}

func DefaultLimits() Limits {
	return Limits{WallClockSeconds: 2.0, MemoryMB: 50}
}

type Runner interface {
	// Language is the submission language this runner handles.
	Language() string
	// Run executes code against input. Code is guaranteed non-empty by
	// the caller.
	Run(ctx context.Context, code string, input value.Value) (*Result, error)
}

// Registry resolves a runner by submission language, case-insensitively.
type Registry struct {
	byLanguage map[string]Runner
}

func NewRegistry(runners ...Runner) *Registry {
	r := &Registry{byLanguage: make(map[string]Runner, len(runners))}
	for _, rn := range runners {
		r.byLanguage[strings.ToLower(rn.Language())] = rn
	}
	return r
}

func (r *Registry) Lookup(language string) (Runner, bool) {
	rn, ok := r.byLanguage[strings.ToLower(strings.TrimSpace(language))]
	return rn, ok
}
