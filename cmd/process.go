// =============================================================================
// Trader Config Editor - Process Command
// =============================================================================
//
// This file defines the 'process' command, which applies price profiles to
// every configuration file in the input directory.
//
// COMMAND USAGE:
//   tradercfg process [flags]
//
// FLAGS:
//   --dry-run  : Apply profiles in memory only; nothing is written or moved
//   --profile  : Use this profile for every file instead of matching patterns
//   --file     : Process only this file
//
// PROCESSING PIPELINE:
//   1. Load the profiles
//   2. Discover JSON files in the input directory
//   3. For each file (concurrently, up to max_concurrency):
//      a. Select the profile by file name
//      b. Apply its operations in order
//      c. Write the output file
//      d. Archive input and output
//   4. Print and write the summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/config"
	"github.com/ginjaninja78/trader-config-editor/internal/processor"
	"github.com/ginjaninja78/trader-config-editor/pkg/utils"
)

var (
	dryRun      bool
	profileName string
	filePath    string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Apply price profiles to all configuration files in the input directory",
	Long: `The process command scans the input directory for JSON files, selects a
profile for each file by its file name patterns, and applies the profile's
operations in order.

On successful processing:
  - The modified file is written to the output directory
  - The original file is moved to the input archive
  - A summary report is written to the output directory

On error:
  - The original file remains in the input directory
  - Processing continues for other files unless continue_on_error is false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runProcess(ctx, cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Apply profiles without writing or archiving files")
	processCmd.Flags().StringVar(&profileName, "profile", "", "Profile to use for every file")
	processCmd.Flags().StringVar(&filePath, "file", "", "Process only this file")
}

func runProcess(ctx context.Context, cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD PROFILES
	// =========================================================================

	profiles, err := config.LoadProfiles(appConfig.ProfilesDir)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles found in %s", appConfig.ProfilesDir)
	}
	logger.Info("profiles loaded", zap.Int("count", len(profiles)))

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(
		appConfig.InputDir,
		appConfig.OutputDir,
		appConfig.InputArchiveDir,
		appConfig.OutputArchiveDir,
	)

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = files.DiscoverInputFiles("")
		if err != nil {
			return err
		}
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No JSON files found in the input directory.")
		return nil
	}
	if !dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}
	logger.Info("processing files", zap.Int("count", len(inputFiles)), zap.Bool("dry_run", dryRun))

	// =========================================================================
	// STEP 3: PROCESS FILES
	// =========================================================================

	results, batchErr := processor.Batch(ctx, inputFiles, profiles, appConfig, processor.BatchOptions{
		Profile: profileName,
		DryRun:  dryRun,
	}, logger)

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		DryRun:     dryRun,
		TotalFiles: len(inputFiles),
	}
	for _, r := range results {
		if r.Success {
			summary.SuccessfulFiles++
			summary.RecordsUpdated += r.Stats.RecordsUpdated
			summary.RecordsSkipped += r.Stats.RecordsSkipped
			summary.PriceErrors += r.Stats.PriceErrors
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:      r.FilePath,
				OutputFile:     r.OutputFile,
				Profile:        r.Profile,
				RecordsUpdated: r.Stats.RecordsUpdated,
				ProcessTime:    r.Stats.ProcessingTime,
			})
			target := r.OutputFile
			if target == "" {
				target = "(dry run)"
			}
			fmt.Fprintf(out, "  ✓ %s [%s] -> %s (%d updated)\n", filepath.Base(r.FilePath), r.Profile, target, r.Stats.RecordsUpdated)
			continue
		}
		summary.FailedFiles++
		msg := "not processed"
		if r.Error != nil {
			msg = r.Error.Error()
		}
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{InputFile: r.FilePath, ErrorMessage: msg})
		fmt.Fprintf(out, "  ✗ %s: %s\n", filepath.Base(r.FilePath), msg)
	}
	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Records updated: %d\n", summary.RecordsUpdated)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, appConfig.OutputDir)
		if err != nil {
			logger.Warn("failed to write summary", zap.Error(err))
		} else {
			logger.Info("summary written", zap.String("file", path))
		}
	}

	return batchErr
}
