package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. The bridge re-executes the test
// binary into it to play the worker.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	order, err := DecodeWorkOrder(os.Args[len(os.Args)-1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}

	switch os.Getenv("BRIDGE_HELPER_BEHAVIOUR") {
	case "success-line":
		_ = ResultLine{Status: ResultSuccess, File: "/final/" + order.FileName(".docx"), Message: order.MaterialProduct}.Write(os.Stdout)
		os.Exit(ExitSuccess)
	case "noisy-success":
		fmt.Println("copying template")
		fmt.Println("{not json")
		_ = ResultLine{Status: ResultSuccess, Attempts: 2}.Write(os.Stdout)
		os.Exit(ExitSuccess)
	case "cancel-line":
		_ = ResultLine{Status: ResultCancelled, Message: "print dialog dismissed"}.Write(os.Stdout)
		os.Exit(ExitCancelled)
	case "failed-line":
		_ = ResultLine{Status: ResultFailed, Message: "template not found"}.Write(os.Stdout)
		os.Exit(ExitFailure)
	case "line-overrides-exit":
		_ = ResultLine{Status: ResultSuccess}.Write(os.Stdout)
		os.Exit(7)
	case "exit0":
		os.Exit(0)
	case "exit2":
		os.Exit(2)
	case "exit1":
		fmt.Fprintln(os.Stderr, "legacy worker error")
		os.Exit(1)
	case "sleep":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	default:
		os.Exit(99)
	}
}

func helperBridge(t *testing.T, behaviour string, timeout time.Duration) *Bridge {
	t.Helper()
	return New(config.BridgeConfig{
		WorkerPath: os.Args[0],
		WorkerArgs: []string{"-test.run=TestHelperProcess", "--"},
		Timeout:    timeout,
		WaitDelay:  200 * time.Millisecond,
	}, WithEnv("GO_WANT_HELPER_PROCESS=1", "BRIDGE_HELPER_BEHAVIOUR="+behaviour))
}

func testOrder(mode Mode) WorkOrder {
	return WorkOrder{
		Mode:             mode,
		RequestNo:        "AWR-20250301-0001",
		AwrType:          "RM",
		ItemID:           12,
		MaterialProduct:  "Paracetamol",
		BatchNo:          "B-001",
		ArNo:             "AR-1",
		AwrNo:            "DOC-7",
		QtyIssued:        decimal.NewFromInt(2),
		IssuedByUsername: "qa1",
	}
}

func requireBridgeError(t *testing.T, err error, outcome Outcome) *Error {
	t.Helper()
	require.Error(t, err)
	var be *Error
	require.True(t, errors.As(err, &be), "expected *bridge.Error, got %T", err)
	assert.Equal(t, outcome, be.Outcome)
	assert.Equal(t, outcome.Code(), be.Code)
	return be
}

func TestRunWorkerAction_SuccessLine(t *testing.T) {
	b := helperBridge(t, "success-line", 30*time.Second)

	res, err := b.RunWorkerAction(context.Background(), testOrder(ModeGenerate))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "/final/AWR-20250301-0001_DOC-7.docx", res.File)
	assert.Equal(t, "Paracetamol", res.Message, "payload reaches the worker intact")
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunWorkerAction_IgnoresNoiseBeforeResultLine(t *testing.T) {
	res, err := helperBridge(t, "noisy-success", 30*time.Second).
		RunWorkerAction(context.Background(), testOrder(ModePrint))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
}

func TestRunWorkerAction_ResultLineWinsOverExitCode(t *testing.T) {
	res, err := helperBridge(t, "line-overrides-exit", 30*time.Second).
		RunWorkerAction(context.Background(), testOrder(ModeGenerate))
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
}

func TestRunWorkerAction_CancelledLine(t *testing.T) {
	_, err := helperBridge(t, "cancel-line", 30*time.Second).
		RunWorkerAction(context.Background(), testOrder(ModePrint))

	be := requireBridgeError(t, err, OutcomeCancelled)
	assert.Equal(t, issuance.CodeBridgeCancelled, be.Code)
	assert.Equal(t, "print dialog dismissed", be.Message)
	assert.Equal(t, ExitCancelled, be.ExitCode)
}

func TestRunWorkerAction_FailedLine(t *testing.T) {
	_, err := helperBridge(t, "failed-line", 30*time.Second).
		RunWorkerAction(context.Background(), testOrder(ModeGenerate))

	be := requireBridgeError(t, err, OutcomeFailure)
	assert.Equal(t, issuance.CodeBridgeFailure, be.Code)
	assert.Equal(t, "template not found", be.Message)
}

func TestRunWorkerAction_ExitCodeClassification(t *testing.T) {
	tests := []struct {
		name      string
		behaviour string
		mode      Mode
		want      Outcome
	}{
		{"exit 0 without line", "exit0", ModeGenerate, OutcomeSuccess},
		{"exit 2 generate", "exit2", ModeGenerate, OutcomeCancelled},
		{"exit 2 print", "exit2", ModePrint, OutcomeCancelled},
		{"exit 1 generate is failure", "exit1", ModeGenerate, OutcomeFailure},
		{"exit 1 print is cancelled", "exit1", ModePrint, OutcomeCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := helperBridge(t, tt.behaviour, 30*time.Second).
				RunWorkerAction(context.Background(), testOrder(tt.mode))
			assert.Equal(t, tt.want, OutcomeOf(err))
		})
	}
}

func TestRunWorkerAction_Timeout(t *testing.T) {
	b := helperBridge(t, "sleep", 300*time.Millisecond)

	start := time.Now()
	_, err := b.RunWorkerAction(context.Background(), testOrder(ModeGenerate))

	be := requireBridgeError(t, err, OutcomeTimeout)
	assert.Equal(t, issuance.CodeBridgeTimeout, be.Code)
	assert.Less(t, time.Since(start), 10*time.Second, "worker must be killed at the deadline")
}

func TestRunWorkerAction_CallerCancelled(t *testing.T) {
	b := helperBridge(t, "sleep", 30*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := b.RunWorkerAction(ctx, testOrder(ModeGenerate))

	// the caller's own deadline propagates into the run context
	assert.Equal(t, OutcomeTimeout, OutcomeOf(err))
}

func TestRunWorkerAction_MissingBinary(t *testing.T) {
	b := New(config.BridgeConfig{WorkerPath: "/nonexistent/awr-worker", Timeout: time.Second})

	_, err := b.RunWorkerAction(context.Background(), testOrder(ModePrint))

	be := requireBridgeError(t, err, OutcomeFailure)
	assert.Contains(t, be.Message, "could not be started")
	assert.Error(t, be.Unwrap())
}

func TestRunWorkerAction_InvalidOrder(t *testing.T) {
	b := helperBridge(t, "exit0", time.Second)
	order := testOrder(ModeGenerate)
	order.Mode = "SCAN"

	_, err := b.RunWorkerAction(context.Background(), order)
	requireBridgeError(t, err, OutcomeFailure)
}

func TestNew_Defaults(t *testing.T) {
	b := New(config.BridgeConfig{WorkerPath: "/usr/bin/awr-worker"})
	assert.Equal(t, 2*time.Minute, b.timeout)
	assert.Equal(t, 5*time.Second, b.waitDelay)
	assert.Equal(t, "/usr/bin/awr-worker", b.workerPath)
}

func TestResolveWorkerPath(t *testing.T) {
	assert.Equal(t, "", ResolveWorkerPath(""))
	assert.Equal(t, "/opt/awr/awr-worker", ResolveWorkerPath("/opt/awr/awr-worker"))
	assert.Equal(t, "bin/awr-worker", ResolveWorkerPath("bin/awr-worker"))
	assert.Equal(t, "definitely-not-next-to-the-test-binary", ResolveWorkerPath("definitely-not-next-to-the-test-binary"))
}
