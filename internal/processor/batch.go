package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/trader-config-editor/internal/config"
)

// ErrNoProfile is the result error of a file no profile matches.
var ErrNoProfile = errors.New("no matching profile")

// BatchOptions configures Batch.
type BatchOptions struct {
	// Profile forces one profile for every file. Empty selects by pattern.
	Profile string

	DryRun bool
}

// FindProfile returns the profile for fileName: the one named name when
// name is set, otherwise the first profile (by name) with a matching
// pattern.
func FindProfile(fileName string, profiles map[string]*config.Profile, name string) (*config.Profile, error) {
	if name != "" {
		profile, ok := profiles[name]
		if !ok {
			return nil, fmt.Errorf("profile %q not found", name)
		}
		return profile, nil
	}

	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if profiles[n].Matches(fileName) {
			return profiles[n], nil
		}
	}
	return nil, ErrNoProfile
}

// Batch processes files with at most mainConfig.MaxConcurrency running at
// once. Results are returned in the order of files. Unless
// ContinueOnError is set, the first failure stops files that have not
// started yet and is returned as the error.
func Batch(ctx context.Context, files []string, profiles map[string]*config.Profile, mainConfig *config.MainConfig, opts BatchOptions, logger *zap.Logger) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Profile != "" {
		if _, ok := profiles[opts.Profile]; !ok {
			return nil, fmt.Errorf("profile %q not found", opts.Profile)
		}
	}

	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(mainConfig.MaxConcurrency)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{FilePath: file, Error: err}
				return nil
			}

			profile, err := FindProfile(filepath.Base(file), profiles, opts.Profile)
			if err != nil {
				results[i] = Result{FilePath: file, Error: err}
			} else {
				results[i] = New(file, profile, mainConfig, logger).WithDryRun(opts.DryRun).Run()
			}

			if !results[i].Success {
				logger.Warn("file failed", zap.String("file", file), zap.Error(results[i].Error))
				if !mainConfig.ContinueOnError {
					return fmt.Errorf("%s: %w", filepath.Base(file), results[i].Error)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
