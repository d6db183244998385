package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/awr/backend/internal/infrastructure/config"
	"github.com/awr/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// maxLoggedOutput bounds how much worker stderr ends up in logs and errors
const maxLoggedOutput = 2048

// Result describes a successful worker run
type Result struct {
	Outcome    Outcome
	ExitCode   int
	Message    string
	File       string
	ArchiveKey string
	Duration   time.Duration
}

// Bridge runs the worker executable once per call. Every call owns its
// process; nothing is shared between calls.
type Bridge struct {
	workerPath string
	workerArgs []string
	timeout    time.Duration
	waitDelay  time.Duration
	env        []string
	logger     *zap.Logger
}

// Option configures a Bridge
type Option func(*Bridge)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithEnv adds KEY=VALUE pairs to the worker environment
func WithEnv(env ...string) Option {
	return func(b *Bridge) {
		b.env = append(b.env, env...)
	}
}

// New creates a bridge from configuration
func New(cfg config.BridgeConfig, opts ...Option) *Bridge {
	b := &Bridge{
		workerPath: ResolveWorkerPath(cfg.WorkerPath),
		workerArgs: append([]string(nil), cfg.WorkerArgs...),
		timeout:    cfg.Timeout,
		waitDelay:  cfg.WaitDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.timeout <= 0 {
		b.timeout = 2 * time.Minute
	}
	if b.waitDelay <= 0 {
		b.waitDelay = 5 * time.Second
	}
	return b
}

// ResolveWorkerPath prefers a bare executable name found next to the running
// binary. Anything else is returned unchanged and resolved through PATH.
func ResolveWorkerPath(path string) string {
	if path == "" || filepath.IsAbs(path) || strings.ContainsRune(path, filepath.Separator) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	candidate := filepath.Join(filepath.Dir(exe), path)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return path
}

// RunWorkerAction launches the worker for order and waits for it. A nil error
// means success; anything else is a *Error carrying the outcome.
func (b *Bridge) RunWorkerAction(ctx context.Context, order WorkOrder) (*Result, error) {
	if err := order.Validate(); err != nil {
		return nil, NewError(OutcomeFailure, "invalid work order", -1, err)
	}
	payload, err := order.Encode()
	if err != nil {
		return nil, NewError(OutcomeFailure, "could not encode work order", -1, err)
	}

	ctx, span := telemetry.StartSpan(ctx, "bridge.run_worker",
		telemetry.AttrMode, string(order.Mode),
		telemetry.AttrItemID, order.ItemID,
		telemetry.AttrRequestNo, order.RequestNo,
	)
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	args := append(append([]string(nil), b.workerArgs...), payload)
	cmd := exec.CommandContext(runCtx, b.workerPath, args...)
	cmd.WaitDelay = b.waitDelay
	if len(b.env) > 0 {
		cmd.Env = append(os.Environ(), b.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := b.logger.With(
		zap.String("mode", string(order.Mode)),
		zap.Int64("item_id", order.ItemID),
		zap.String("request_no", order.RequestNo),
	)
	log.Info("Launching worker", zap.String("worker", b.workerPath))

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	result, classifyErr := b.classify(runCtx, order.Mode, runErr, exitCode, stdout.Bytes())
	telemetry.SetAttributes(span,
		telemetry.AttrOutcome, string(OutcomeOf(classifyErr)),
		telemetry.AttrExitCode, exitCode,
	)

	if classifyErr != nil {
		telemetry.RecordError(span, classifyErr)
		log.Warn("Worker run did not succeed",
			zap.String("outcome", string(OutcomeOf(classifyErr))),
			zap.Int("exit_code", exitCode),
			zap.Duration("duration", duration),
			zap.String("stderr", truncate(stderr.String())),
			zap.Error(classifyErr),
		)
		return nil, classifyErr
	}

	result.Duration = duration
	log.Info("Worker run succeeded",
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", duration),
		zap.String("file", result.File),
	)
	return result, nil
}

// classify decides the outcome: deadline first, then the worker's own result
// line, then the exit code
func (b *Bridge) classify(runCtx context.Context, mode Mode, runErr error, exitCode int, stdout []byte) (*Result, error) {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, NewError(OutcomeTimeout,
			fmt.Sprintf("worker did not finish within %s", b.timeout), exitCode, runErr)
	}
	if errors.Is(runCtx.Err(), context.Canceled) {
		return nil, NewError(OutcomeFailure, "worker run aborted by caller", exitCode, runErr)
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) && !errors.Is(runErr, exec.ErrWaitDelay) {
		return nil, NewError(OutcomeFailure, "worker could not be started", exitCode, runErr)
	}

	if line, ok := ParseResultLine(stdout); ok {
		switch line.Status {
		case ResultSuccess:
			return &Result{
				Outcome:    OutcomeSuccess,
				ExitCode:   exitCode,
				Message:    line.Message,
				File:       line.File,
				ArchiveKey: line.ArchiveKey,
			}, nil
		case ResultCancelled:
			return nil, NewError(OutcomeCancelled, messageOr(line.Message, "cancelled by user"), exitCode, nil)
		default:
			return nil, NewError(OutcomeFailure, messageOr(line.Message, "worker reported failure"), exitCode, nil)
		}
	}

	switch {
	case exitCode == ExitSuccess:
		return &Result{Outcome: OutcomeSuccess, ExitCode: exitCode}, nil
	case exitCode == ExitCancelled:
		return nil, NewError(OutcomeCancelled, "cancelled by user", exitCode, nil)
	case mode == ModePrint:
		return nil, NewError(OutcomeCancelled,
			fmt.Sprintf("print did not complete (exit code %d)", exitCode), exitCode, runErr)
	default:
		return nil, NewError(OutcomeFailure,
			fmt.Sprintf("worker exited with code %d", exitCode), exitCode, runErr)
	}
}

func messageOr(message, fallback string) string {
	if strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}

func truncate(s string) string {
	if len(s) <= maxLoggedOutput {
		return s
	}
	return s[:maxLoggedOutput] + "...(truncated)"
}
