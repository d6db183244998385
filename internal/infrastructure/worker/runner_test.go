package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, order bridge.WorkOrder) (*Output, error) {
	args := m.Called(ctx, order)
	out, _ := args.Get(0).(*Output)
	return out, args.Error(1)
}

type mockPrinter struct{ mock.Mock }

func (m *mockPrinter) Print(ctx context.Context, order bridge.WorkOrder) (*Output, error) {
	args := m.Called(ctx, order)
	out, _ := args.Get(0).(*Output)
	return out, args.Error(1)
}

func TestRunner_GenerateSucceedsFirstAttempt(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(&Output{File: "/final/a.docx", ArchiveKey: "awr/a"}, nil).Once()

	line := NewRunner(gen, new(mockPrinter), 3, time.Millisecond, nil).Run(context.Background(), stampOrder(bridge.ModeGenerate))

	assert.Equal(t, bridge.ResultSuccess, line.Status)
	assert.Equal(t, "/final/a.docx", line.File)
	assert.Equal(t, "awr/a", line.ArchiveKey)
	assert.Equal(t, 1, line.Attempts)
	gen.AssertExpectations(t)
}

func TestRunner_RetriesThenSucceeds(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("file locked")).Twice()
	gen.On("Generate", mock.Anything, mock.Anything).Return(&Output{File: "f"}, nil).Once()

	line := NewRunner(gen, nil, 3, time.Millisecond, nil).Run(context.Background(), stampOrder(bridge.ModeGenerate))

	assert.Equal(t, bridge.ResultSuccess, line.Status)
	assert.Equal(t, 3, line.Attempts)
	gen.AssertExpectations(t)
}

func TestRunner_GivesUpAfterMaxRetries(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("template not found")).Times(3)

	line := NewRunner(gen, nil, 3, time.Millisecond, nil).Run(context.Background(), stampOrder(bridge.ModeGenerate))

	assert.Equal(t, bridge.ResultFailed, line.Status)
	assert.Equal(t, "template not found", line.Message)
	assert.Equal(t, 3, line.Attempts)
	assert.Equal(t, bridge.ExitFailure, line.ExitCode())
	gen.AssertExpectations(t)
}

func TestRunner_CancelIsNotRetried(t *testing.T) {
	printer := new(mockPrinter)
	printer.On("Print", mock.Anything, mock.Anything).Return(nil, ErrCancelled).Once()

	line := NewRunner(nil, printer, 3, time.Millisecond, nil).Run(context.Background(), stampOrder(bridge.ModePrint))

	assert.Equal(t, bridge.ResultCancelled, line.Status)
	assert.Equal(t, 1, line.Attempts)
	assert.Equal(t, bridge.ExitCancelled, line.ExitCode())
	printer.AssertExpectations(t)
}

func TestRunner_StopsWaitingWhenContextEnds(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("busy")).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	line := NewRunner(gen, nil, 3, time.Hour, nil).Run(ctx, stampOrder(bridge.ModeGenerate))

	assert.Equal(t, bridge.ResultFailed, line.Status)
	assert.Equal(t, 1, line.Attempts)
	gen.AssertExpectations(t)
}

func TestRunner_UnknownMode(t *testing.T) {
	order := stampOrder(bridge.ModeGenerate)
	order.Mode = "SCAN"

	line := NewRunner(nil, nil, 1, 0, nil).Run(context.Background(), order)

	assert.Equal(t, bridge.ResultFailed, line.Status)
	assert.Contains(t, line.Message, "unknown mode")
}
