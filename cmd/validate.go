package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/trader-config-editor/internal/validation"
)

var (
	validateStrict          bool
	validateSkipPassthrough bool
	validateJSON            bool
)

// errInvalidDocument makes validate exit non-zero after printing findings.
var errInvalidDocument = errors.New("document has validation errors")

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Report problems in a configuration file",
	Long: `validate reports records that bulk operations would skip or shorten,
prices that are not numeric, duplicate category names and missing
top-level keys. It exits with an error when an error (or, with --strict,
a warning) is found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		result := validation.NewValidatorWithOptions(validation.ValidationOptions{
			TreatWarningsAsErrors: validateStrict,
			SkipPassthroughChecks: validateSkipPassthrough,
		}).ValidateAll(doc)

		out := cmd.OutOrStdout()
		if validateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			for _, e := range result.Errors {
				fmt.Fprintln(out, e.Error())
			}
			fmt.Fprintf(out, "%d categories, %d records: %d error(s), %d warning(s), %d info\n",
				result.CategoriesValidated, result.RecordsValidated,
				result.ErrorCount, result.WarningCount, result.InfoCount)
		}

		if !result.IsValid {
			return errInvalidDocument
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat warnings as errors")
	validateCmd.Flags().BoolVar(&validateSkipPassthrough, "skip-passthrough", false, "Do not report missing top-level keys")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the result as JSON")
}
