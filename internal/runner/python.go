package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/tukey-oj/evaluator/internal/value"
)

const (
	solutionFilename = "solution.py"
	harnessFilename  = "harness.py"
	verdictFilename  = "result.json"

	// grace period on top of the wall-clock ceiling so the harness can
	// flush its verdict before the subprocess is killed
	deadlineGraceSeconds = 0.5
)

// PythonRunner executes submissions in a python3 subprocess. Every
// invocation gets its own scoped work directory which is removed on all
// exit paths; the deadline is enforced by killing the subprocess, not
// by a watchdog that merely observes.
type PythonRunner struct {
	log       *slog.Logger
	pythonBin string
	baseDir   string
	limits    Limits

	// one compile/execute cycle in flight per worker process
	mu sync.Mutex
}

func NewPythonRunner(log *slog.Logger, limits Limits) *PythonRunner {
	return &PythonRunner{
		log:       log,
		pythonBin: "python3",
		baseDir:   os.TempDir(),
		limits:    limits,
	}
}

// WithWorkDir places per-invocation scratch directories under dir
// instead of the system temp dir.
func (r *PythonRunner) WithWorkDir(dir string) *PythonRunner {
	r.baseDir = dir
	return r
}

// WithPython overrides the interpreter binary.
func (r *PythonRunner) WithPython(bin string) *PythonRunner {
	r.pythonBin = bin
	return r
}

func (r *PythonRunner) Language() string { return "python" }

type harnessVerdict struct {
	Status        string          `json:"status"`
	Error         string          `json:"error"`
	Result        json.RawMessage `json:"result"`
	ExecutionTime *float64        `json:"execution_time"`
	PeakMemory    *float64        `json:"peak_memory"`
	MemoryLimited bool            `json:"memory_limited"`
}

type harnessPayload struct {
	Input            value.Value `json:"input"`
	MemoryLimitBytes int64       `json:"memory_limit_bytes"`
}

func (r *PythonRunner) Run(ctx context.Context, code string, input value.Value) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir, err := os.MkdirTemp(r.baseDir, "eval-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.log.Warn("failed to remove work dir", "dir", dir, "error", err)
		}
	}()

	solutionPath := filepath.Join(dir, solutionFilename)
	if err := os.WriteFile(solutionPath, []byte(code), 0644); err != nil {
		return nil, fmt.Errorf("failed to write solution file: %w", err)
	}
	harnessPath := filepath.Join(dir, harnessFilename)
	if err := os.WriteFile(harnessPath, []byte(harnessSource), 0644); err != nil {
		return nil, fmt.Errorf("failed to write harness file: %w", err)
	}
	verdictPath := filepath.Join(dir, verdictFilename)

	payload, err := json.Marshal(harnessPayload{
		Input:            input,
		MemoryLimitBytes: int64(r.limits.MemoryMB) * 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode input payload: %w", err)
	}

	deadline := secondsToDuration(r.limits.WallClockSeconds + deadlineGraceSeconds)
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.pythonBin, harnessPath, solutionPath, verdictPath)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &Result{
			Kind:         KindTimeLimitExceeded,
			ErrorMessage: fmt.Sprintf("execution exceeded %.1fs wall-clock limit", r.limits.WallClockSeconds),
		}, nil
	}

	verdictBytes, readErr := os.ReadFile(verdictPath)
	if readErr != nil {
		if runErr != nil && cmd.ProcessState == nil {
			// the interpreter never started; that is an infrastructure
			// fault, not a verdict about the submission
			return nil, fmt.Errorf("failed to start python interpreter: %w", runErr)
		}
		if runErr != nil {
			// killed before the harness could write anything,
			// e.g. the rlimit aborted the interpreter itself
			return &Result{
				Kind:         KindMemoryLimitExceeded,
				ErrorMessage: fmt.Sprintf("interpreter aborted: %s", firstLine(stderr.String())),
			}, nil
		}
		return nil, fmt.Errorf("failed to read harness verdict: %w", readErr)
	}

	var verdict harnessVerdict
	if err := json.Unmarshal(verdictBytes, &verdict); err != nil {
		return nil, fmt.Errorf("failed to decode harness verdict: %w", err)
	}

	if !verdict.MemoryLimited {
		r.log.Warn("memory ceiling not enforced on this platform", "limit_mb", r.limits.MemoryMB)
	}

	return r.classify(verdict)
}

func (r *PythonRunner) classify(verdict harnessVerdict) (*Result, error) {
	switch verdict.Status {
	case "ok":
		// a call that returns after the ceiling is still over the limit
		if verdict.ExecutionTime != nil && *verdict.ExecutionTime > r.limits.WallClockSeconds {
			return &Result{
				Kind:         KindTimeLimitExceeded,
				ErrorMessage: fmt.Sprintf("execution took %.3fs, limit is %.1fs", *verdict.ExecutionTime, r.limits.WallClockSeconds),
			}, nil
		}
		v, err := value.DecodeJSON(verdict.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to decode harness result value: %w", err)
		}
		return &Result{
			Kind:          KindOK,
			Value:         value.Wrap(v),
			ExecutionTime: verdict.ExecutionTime,
			PeakMemory:    verdict.PeakMemory,
		}, nil
	case "memory_limit_exceeded":
		return &Result{Kind: KindMemoryLimitExceeded, ErrorMessage: verdict.Error}, nil
	case "runtime_error":
		return &Result{Kind: KindRuntimeError, ErrorMessage: verdict.Error}, nil
	case "no_entry_point":
		return &Result{Kind: KindNoEntryPoint, ErrorMessage: verdict.Error}, nil
	case "parameter_mismatch":
		return &Result{Kind: KindParameterMismatch, ErrorMessage: verdict.Error}, nil
	}
	return nil, fmt.Errorf("unknown harness status %q", verdict.Status)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
