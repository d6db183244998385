package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finalCopy(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AWR-20250301-0001_DOC-7.docx"), []byte("copy"), 0o644))
	return dir
}

func TestCommandPrinter_Print(t *testing.T) {
	dir := finalCopy(t)
	printer := NewCommandPrinter(dir,
		[]string{"sh", "-c", "echo {copies} > {file}.printed"},
		130, "Acme Labs",
		WithPrinterClock(func() time.Time { return stampTime }),
	)

	out, err := printer.Print(context.Background(), stampOrder(bridge.ModePrint))
	require.NoError(t, err)

	file := filepath.Join(dir, "AWR-20250301-0001_DOC-7.docx")
	assert.Equal(t, file, out.File)

	printed, err := os.ReadFile(file + ".printed")
	require.NoError(t, err)
	assert.Equal(t, "3", strings.TrimSpace(string(printed)), "2.5 copies round up")

	receipt, err := os.ReadFile(file + ReceiptSuffix)
	require.NoError(t, err)
	goldie.New(t).Assert(t, "stamp_receipt", receipt)
}

func TestCommandPrinter_Cancelled(t *testing.T) {
	printer := NewCommandPrinter(finalCopy(t), []string{"sh", "-c", "exit 130"}, 130, "")

	_, err := printer.Print(context.Background(), stampOrder(bridge.ModePrint))
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCommandPrinter_Failure(t *testing.T) {
	printer := NewCommandPrinter(finalCopy(t), []string{"sh", "-c", "echo no printer >&2; exit 3"}, 130, "")

	_, err := printer.Print(context.Background(), stampOrder(bridge.ModePrint))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.Contains(t, err.Error(), "no printer")
}

func TestCommandPrinter_MissingCopy(t *testing.T) {
	printer := NewCommandPrinter(t.TempDir(), nil, 130, "")

	_, err := printer.Print(context.Background(), stampOrder(bridge.ModePrint))
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCommandPrinter_NoCommandWritesReceipt(t *testing.T) {
	dir := finalCopy(t)
	printer := NewCommandPrinter(dir, nil, 130, "")

	_, err := printer.Print(context.Background(), stampOrder(bridge.ModePrint))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "AWR-20250301-0001_DOC-7.docx"+ReceiptSuffix))
}
