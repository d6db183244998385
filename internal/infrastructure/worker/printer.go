package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"go.uber.org/zap"
)

// ReceiptSuffix is appended to a copy's path for its printed receipt
const ReceiptSuffix = ".receipt.txt"

// ErrCancelled means the user dismissed the print. It is never retried.
var ErrCancelled = errors.New("print cancelled by user")

// CommandPrinter prints the final copy with an external command
type CommandPrinter struct {
	finalRoot      string
	command        []string
	cancelExitCode int
	companyName    string
	now            func() time.Time
	logger         *zap.Logger
}

// PrinterOption configures a CommandPrinter
type PrinterOption func(*CommandPrinter)

// WithPrinterClock overrides the receipt time source
func WithPrinterClock(now func() time.Time) PrinterOption {
	return func(p *CommandPrinter) {
		p.now = now
	}
}

// WithPrinterLogger sets the logger
func WithPrinterLogger(logger *zap.Logger) PrinterOption {
	return func(p *CommandPrinter) {
		p.logger = logger
	}
}

// NewCommandPrinter creates a printer. command holds {file} and {copies}
// placeholders; an empty command only writes the receipt.
func NewCommandPrinter(finalRoot string, command []string, cancelExitCode int, companyName string, opts ...PrinterOption) *CommandPrinter {
	p := &CommandPrinter{
		finalRoot:      finalRoot,
		command:        append([]string(nil), command...),
		cancelExitCode: cancelExitCode,
		companyName:    companyName,
		now:            time.Now,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Print sends ceil(QtyIssued) copies of the final file to the printer and
// writes the receipt next to it
func (p *CommandPrinter) Print(ctx context.Context, order bridge.WorkOrder) (*Output, error) {
	file, err := FindFile(p.finalRoot, order.FileName(""))
	if err != nil {
		return nil, err
	}
	copies := Copies(order.QtyIssued)

	if len(p.command) == 0 {
		p.logger.Warn("No print command configured, skipping printer", zap.String("file", file))
	} else if err := p.run(ctx, file, copies); err != nil {
		return nil, err
	}

	stamp := Stamp{Order: order, At: p.now(), CompanyName: p.companyName}
	if err := os.WriteFile(file+ReceiptSuffix, []byte(stamp.Receipt()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write receipt: %w", err)
	}

	p.logger.Info("Printed controlled copy", zap.String("file", file), zap.Int("copies", copies))
	return &Output{File: file}, nil
}

func (p *CommandPrinter) run(ctx context.Context, file string, copies int) error {
	argv := make([]string, len(p.command))
	for i, arg := range p.command {
		arg = strings.ReplaceAll(arg, "{file}", file)
		argv[i] = strings.ReplaceAll(arg, "{copies}", strconv.Itoa(copies))
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == p.cancelExitCode {
		return ErrCancelled
	}
	return fmt.Errorf("print command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
}
