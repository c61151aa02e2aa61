package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/pkg/utils"
)

// stdoutPath selects standard output as the destination of -o.
const stdoutPath = "-"

// loadDocument reads and parses a configuration file.
func loadDocument(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := document.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("document loaded", zap.String("file", path), zap.Int("categories", len(doc.Categories())))
	return doc, nil
}

// outputPath resolves -o: empty means the configured output file name next
// to the input.
func outputPath(input, output string) string {
	if output != "" {
		return output
	}
	return filepath.Join(filepath.Dir(input), appConfig.OutputFileName)
}

// saveDocument serializes doc to path, or to stdout when path is "-".
func saveDocument(doc *document.Document, path string, stdout io.Writer) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if path == stdoutPath {
		_, err := stdout.Write(append(data, '\n'))
		return err
	}

	if err := utils.WriteFileAtomic(path, data); err != nil {
		return err
	}
	logger.Info("document written", zap.String("file", path))
	return nil
}
