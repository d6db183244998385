package worker

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StampSuffix is appended to a generated copy's path for its stamp sidecar
const StampSuffix = ".stamp.txt"

// Archiver uploads a generated copy and returns its object key
type Archiver interface {
	Upload(ctx context.Context, requestNo, fileName string, body io.Reader, contentType string) (string, error)
}

// Output is what an action produced
type Output struct {
	File       string
	ArchiveKey string
}

// FileDocumentGenerator copies the template into the final folder and stamps it
type FileDocumentGenerator struct {
	sourceRoot  string
	finalRoot   string
	typeFolders map[string]string
	companyName string
	archive     Archiver
	now         func() time.Time
	logger      *zap.Logger
}

// GeneratorOption configures a FileDocumentGenerator
type GeneratorOption func(*FileDocumentGenerator)

// WithArchive uploads every generated copy
func WithArchive(a Archiver) GeneratorOption {
	return func(g *FileDocumentGenerator) {
		g.archive = a
	}
}

// WithGeneratorClock overrides the stamp time source
func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *FileDocumentGenerator) {
		g.now = now
	}
}

// WithGeneratorLogger sets the logger
func WithGeneratorLogger(logger *zap.Logger) GeneratorOption {
	return func(g *FileDocumentGenerator) {
		g.logger = logger
	}
}

// NewFileDocumentGenerator creates a generator over the two roots
func NewFileDocumentGenerator(sourceRoot, finalRoot string, typeFolders map[string]string, companyName string, opts ...GeneratorOption) *FileDocumentGenerator {
	g := &FileDocumentGenerator{
		sourceRoot:  sourceRoot,
		finalRoot:   finalRoot,
		typeFolders: typeFolders,
		companyName: companyName,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes FinalRoot/<RequestNo>_<AwrNo><ext> and its stamp sidecar.
// The copy is staged under a temporary name so readers never see a partial file.
func (g *FileDocumentGenerator) Generate(ctx context.Context, order bridge.WorkOrder) (*Output, error) {
	searchDir := filepath.Join(g.sourceRoot, TypeFolder(order.AwrType, g.typeFolders))
	source, err := FindFile(searchDir, order.AwrNo)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.finalRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create final folder: %w", err)
	}

	ext := filepath.Ext(source)
	fileName := order.FileName(ext)
	finalPath := filepath.Join(g.finalRoot, fileName)
	tempPath := filepath.Join(g.finalRoot, "."+uuid.NewString()+ext)

	if err := copyFile(source, tempPath); err != nil {
		_ = os.Remove(tempPath)
		return nil, err
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("failed to place %s: %w", fileName, err)
	}

	stamp := Stamp{Order: order, At: g.now(), CompanyName: g.companyName}
	if err := os.WriteFile(finalPath+StampSuffix, []byte(stamp.Text()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write stamp for %s: %w", fileName, err)
	}

	g.logger.Info("Generated controlled copy",
		zap.String("template", source),
		zap.String("file", finalPath),
	)

	out := &Output{File: finalPath}
	if g.archive == nil {
		return out, nil
	}

	f, err := os.Open(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for archiving: %w", fileName, err)
	}
	defer f.Close()

	key, err := g.archive.Upload(ctx, order.RequestNo, fileName, f, contentType(ext))
	if err != nil {
		return nil, err
	}
	out.ArchiveKey = key
	return out, nil
}

// officeTypes are missing from the minimal mime tables of many hosts
var officeTypes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

func contentType(ext string) string {
	if t, ok := officeTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy template: %w", err)
	}
	return out.Close()
}
