// =============================================================================
// Trader Config Editor - Batch Processor
// =============================================================================
//
// This module applies a price profile to one configuration file on disk.
//
// PROCESSING PIPELINE:
//   1. Load the configuration file into a document
//   2. Apply the profile operations in order
//   3. Write the modified document to the output directory
//   4. Archive the processed files
//
// CONCURRENCY:
//   A Processor owns its document, so several processors can run at the same
//   time. Batch runs them under a concurrency limit.
//
// =============================================================================

package processor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/bulk"
	"github.com/ginjaninja78/trader-config-editor/internal/config"
	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the input file.
	FilePath string

	// Profile is the name of the applied profile.
	Profile string

	// OutputFile is the written file; empty on failure and in dry runs.
	OutputFile string

	Success bool

	// Error is nil when Success is true.
	Error error

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// CategoriesSeen counts categories over all operations.
	CategoriesSeen int

	// RecordsUpdated counts records changed over all operations. A record
	// touched by two operations counts twice.
	RecordsUpdated int

	// RecordsSkipped counts malformed records passed over.
	RecordsSkipped int

	// PriceErrors counts non-numeric prices left unchanged.
	PriceErrors int

	ProcessingTime time.Duration
}

func (s *ProcessingStats) add(rep bulk.Report) {
	s.CategoriesSeen += rep.Categories
	s.RecordsUpdated += rep.Updated
	s.RecordsSkipped += len(rep.Skipped)
	s.PriceErrors += len(rep.PriceErrors)
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor applies one profile to one file.
type Processor struct {
	path       string
	profile    *config.Profile
	mainConfig *config.MainConfig
	files      *utils.FileManager
	logger     *zap.Logger
	dryRun     bool
}

// New creates a Processor.
//
// PARAMETERS:
//   - path: The configuration file to process.
//   - profile: The profile to apply.
//   - mainConfig: Directories and output naming.
//   - logger: The logger; nil discards logs.
func New(path string, profile *config.Profile, mainConfig *config.MainConfig, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		path:       path,
		profile:    profile,
		mainConfig: mainConfig,
		files: utils.NewFileManager(
			mainConfig.InputDir,
			mainConfig.OutputDir,
			mainConfig.InputArchiveDir,
			mainConfig.OutputArchiveDir,
		),
		logger: logger.With(zap.String("file", filepath.Base(path)), zap.String("profile", profile.ProfileName)),
	}
}

// WithDryRun makes Run stop before writing or archiving anything.
func (p *Processor) WithDryRun(dryRun bool) *Processor {
	p.dryRun = dryRun
	return p
}

// Run executes the pipeline for the file.
func (p *Processor) Run() Result {
	startTime := time.Now()
	result := Result{FilePath: p.path, Profile: p.profile.ProfileName}

	p.logger.Info("processing file")

	// =========================================================================
	// STEP 1: LOAD
	// =========================================================================

	data, err := os.ReadFile(p.path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read file: %w", err)
		return result
	}
	doc, err := document.Parse(data)
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 2: APPLY OPERATIONS
	// =========================================================================

	stats, err := Apply(doc, p.profile)
	result.Stats = stats
	if err != nil {
		result.Error = err
		return result
	}
	p.logger.Debug("applied operations",
		zap.Int("updated", stats.RecordsUpdated),
		zap.Int("skipped", stats.RecordsSkipped),
		zap.Int("price_errors", stats.PriceErrors))

	if stats.PriceErrors > 0 && !p.mainConfig.ContinueOnError {
		result.Error = fmt.Errorf("%d prices could not be adjusted", stats.PriceErrors)
		return result
	}

	if p.dryRun {
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		p.logger.Info("dry run complete", zap.Int("updated", stats.RecordsUpdated))
		return result
	}

	// =========================================================================
	// STEP 3: WRITE OUTPUT
	// =========================================================================

	out, err := doc.Marshal()
	if err != nil {
		result.Error = fmt.Errorf("failed to encode document: %w", err)
		return result
	}

	outputPath := filepath.Join(p.mainConfig.OutputDir, p.outputFileName())
	if err := utils.WriteFileAtomic(outputPath, out); err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	p.logger.Info("wrote output", zap.String("output", outputPath))

	// =========================================================================
	// STEP 4: ARCHIVE
	// =========================================================================

	if err := p.archiveFiles(outputPath); err != nil {
		// Archival problems do not fail the file.
		p.logger.Warn("failed to archive files", zap.Error(err))
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}

// Apply runs the operations of profile against doc in order.
func Apply(doc *document.Document, profile *config.Profile) (ProcessingStats, error) {
	var stats ProcessingStats

	for i, op := range profile.Operations {
		var (
			rep bulk.Report
			err error
		)
		switch op.Type {
		case config.OperationGlobal:
			rep, err = bulk.ApplyGlobal(doc, bulk.GlobalOptions{
				PricePercent: op.PricePercent,
				Stock:        op.Stock,
			})
		case config.OperationCategory:
			rep, err = bulk.ApplyToCategories(doc, bulk.CategoryOptions{
				Categories:   op.Categories,
				PricePercent: op.PricePercent,
				ApplyToBuy:   op.BuyEnabled(),
				ApplyToSell:  op.SellEnabled(),
			})
		default:
			err = fmt.Errorf("unknown operation type %q", op.Type)
		}
		if err != nil {
			return stats, fmt.Errorf("operation %d: %w", i, err)
		}
		stats.add(rep)
	}

	return stats, nil
}

func (p *Processor) outputFileName() string {
	stem := strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path))
	return utils.GenerateOutputFileName(p.mainConfig.OutputNameFormat, map[string]string{
		"stem":    stem,
		"profile": sanitizeName(p.profile.ProfileName),
	})
}

// sanitizeName keeps a profile name usable inside a file name.
func sanitizeName(name string) string {
	var b bytes.Buffer
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteByte('_')
		case r == ' ':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (p *Processor) archiveFiles(outputPath string) error {
	if _, err := p.files.ArchiveInputFile(p.path); err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}
	if _, err := p.files.ArchiveOutputFile(outputPath); err != nil {
		return fmt.Errorf("failed to archive output file: %w", err)
	}
	return nil
}
