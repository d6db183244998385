// Command awr-worker performs one GENERATE or PRINT action for the server.
//
// It receives a base64 JSON work order as its last argument, writes exactly
// one JSON result line to stdout and exits 0 (success), 1 (failure) or
// 2 (cancelled). Logs go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/awr/backend/internal/infrastructure/config"
	"github.com/awr/backend/internal/infrastructure/logger"
	"github.com/awr/backend/internal/infrastructure/storage"
	"github.com/awr/backend/internal/infrastructure/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(config.Load, os.Stdout, os.Stderr)
	err := cmd.ExecuteContext(ctx)
	os.Exit(exitCode(err, os.Stderr))
}

// exitError carries the process exit code out of a command
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return bridge.ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return bridge.ExitFailure
}

type configLoader func() (*config.Config, error)

func newRootCommand(load configLoader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "awr-worker",
		Short:         "AWR document worker",
		Long:          "Generates and prints controlled AWR document copies on behalf of the AWR server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newRunCommand(load))
	root.AddCommand(newDecodeCommand())
	return root
}

func newRunCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "run <base64-payload>",
		Short: "Execute one work order",
		Example: `  awr-worker run eyJtb2RlIjoiR0VORVJBVEUiLC4uLn0=`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := runOrder(cmd.Context(), load, args[0], cmd.ErrOrStderr())
			if err := line.Write(cmd.OutOrStdout()); err != nil {
				return err
			}
			if code := line.ExitCode(); code != bridge.ExitSuccess {
				return &exitError{code: code}
			}
			return nil
		},
	}
}

func runOrder(ctx context.Context, load configLoader, payload string, stderr io.Writer) bridge.ResultLine {
	order, err := bridge.DecodeWorkOrder(payload)
	if err != nil {
		return bridge.ResultLine{Status: bridge.ResultFailed, Message: err.Error()}
	}

	cfg, err := load()
	if err != nil {
		return bridge.ResultLine{Status: bridge.ResultFailed, Message: "failed to load config: " + err.Error()}
	}

	log, err := logger.New(logger.WorkerConfig(cfg.Worker.LogLevel))
	if err != nil {
		fmt.Fprintln(stderr, "logger unavailable, continuing without logs:", err)
		log = zap.NewNop()
	}
	defer logger.Sync(log)

	genOpts := []worker.GeneratorOption{worker.WithGeneratorLogger(log)}
	if cfg.Storage.Enabled() {
		archive, err := storage.NewS3DocumentArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return bridge.ResultLine{Status: bridge.ResultFailed, Message: "failed to configure archive: " + err.Error()}
		}
		genOpts = append(genOpts, worker.WithArchive(archive))
	}

	w := cfg.Worker
	runner := worker.NewRunner(
		worker.NewFileDocumentGenerator(w.SourceRoot, w.FinalRoot, w.TypeFolders, w.CompanyName, genOpts...),
		worker.NewCommandPrinter(w.FinalRoot, w.PrintCommand, w.CancelExitCode, w.CompanyName, worker.WithPrinterLogger(log)),
		w.MaxRetries,
		w.RetryDelay,
		log,
	)

	log.Info("Worker started",
		zap.String("mode", string(order.Mode)),
		zap.String("request_no", order.RequestNo),
		zap.Int64("item_id", order.ItemID),
	)
	return runner.Run(ctx, *order)
}

func newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <base64-payload>",
		Short: "Print a work order in readable form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := bridge.DecodeWorkOrder(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode:         %s\n", order.Mode)
			fmt.Fprintf(out, "Request No:   %s\n", order.RequestNo)
			fmt.Fprintf(out, "AWR Type:     %s\n", order.AwrType)
			fmt.Fprintf(out, "Item ID:      %d\n", order.ItemID)
			fmt.Fprintf(out, "Material:     %s\n", order.MaterialProduct)
			fmt.Fprintf(out, "Batch No:     %s\n", order.BatchNo)
			fmt.Fprintf(out, "AR No:        %s\n", order.ArNo)
			fmt.Fprintf(out, "AWR No:       %s\n", order.AwrNo)
			fmt.Fprintf(out, "Qty Issued:   %s\n", order.QtyIssued.String())
			fmt.Fprintf(out, "Issued By:    %s\n", order.IssuedByUsername)
			if order.PrintedByUsername != "" {
				fmt.Fprintf(out, "Printed By:   %s\n", order.PrintedByUsername)
			}
			return nil
		},
	}
}
