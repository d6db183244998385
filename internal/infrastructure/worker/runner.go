package worker

import (
	"context"
	"errors"
	"time"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"go.uber.org/zap"
)

// Generator performs the GENERATE action
type Generator interface {
	Generate(ctx context.Context, order bridge.WorkOrder) (*Output, error)
}

// Printer performs the PRINT action
type Printer interface {
	Print(ctx context.Context, order bridge.WorkOrder) (*Output, error)
}

// Runner dispatches a work order and retries failed attempts
type Runner struct {
	generator  Generator
	printer    Printer
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewRunner creates a runner. maxRetries below one means a single attempt.
func NewRunner(generator Generator, printer Printer, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *Runner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		generator:  generator,
		printer:    printer,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Run executes the order and returns the line to report on stdout
func (r *Runner) Run(ctx context.Context, order bridge.WorkOrder) bridge.ResultLine {
	log := r.logger.With(
		zap.String("mode", string(order.Mode)),
		zap.String("request_no", order.RequestNo),
		zap.Int64("item_id", order.ItemID),
	)

	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		out, err := r.attempt(ctx, order)
		if err == nil {
			log.Info("Action succeeded", zap.Int("attempt", attempt))
			return bridge.ResultLine{
				Status:     bridge.ResultSuccess,
				File:       out.File,
				ArchiveKey: out.ArchiveKey,
				Attempts:   attempt,
			}
		}
		if errors.Is(err, ErrCancelled) {
			log.Info("Action cancelled", zap.Int("attempt", attempt))
			return bridge.ResultLine{Status: bridge.ResultCancelled, Message: err.Error(), Attempts: attempt}
		}

		lastErr = err
		log.Warn("Action attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return bridge.ResultLine{Status: bridge.ResultFailed, Message: ctx.Err().Error(), Attempts: attempt}
		case <-time.After(r.retryDelay):
		}
	}

	return bridge.ResultLine{Status: bridge.ResultFailed, Message: lastErr.Error(), Attempts: r.maxRetries}
}

func (r *Runner) attempt(ctx context.Context, order bridge.WorkOrder) (*Output, error) {
	switch order.Mode {
	case bridge.ModeGenerate:
		return r.generator.Generate(ctx, order)
	case bridge.ModePrint:
		return r.printer.Print(ctx, order)
	default:
		return nil, errors.New("unknown mode " + string(order.Mode))
	}
}
