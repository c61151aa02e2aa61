package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/record"
)

var (
	editCategoryIndex int
	editRow           int
	editOutput        string
	editValues        = make([]string, record.FieldCount)
)

// editFlagNames are the field flags in record order.
var editFlagNames = []string{"name", "col2", "col3", "stock", "buy-price", "sell-price"}

var editCmd = &cobra.Command{
	Use:   "edit FILE",
	Short: "Overwrite fields of a single record",
	Long: `edit replaces the fields given on the command line in one record and
keeps the others. The record is addressed by category index and row, as
printed by 'show'. Values are written verbatim. A record that has fewer
than six fields is only replaced when all six field flags are given.`,
	Example: `  tradercfg edit TraderPlusPriceConfig.json --category-index 0 --row 3 --sell-price 45`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		cat, err := doc.Category(editCategoryIndex)
		if err != nil {
			return err
		}
		raw, err := cat.Product(editRow)
		if err != nil {
			return err
		}

		var updates [record.FieldCount]*string
		for i, name := range editFlagNames {
			if cmd.Flags().Changed(name) {
				updates[i] = &editValues[i]
			}
		}
		fields, err := record.Merge(raw, updates)
		if err != nil {
			return fmt.Errorf("category %d row %d: %w (give all six field flags to replace it)", editCategoryIndex, editRow, err)
		}
		if cols := fields.SeparatorColumns(); len(cols) > 0 {
			logger.Warn("field value contains the record separator", zap.Strings("columns", cols))
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: separator %q in %s will shift the following fields\n",
				record.Separator, strings.Join(cols, ", "))
		}

		if err := doc.SetRecord(editCategoryIndex, editRow, fields); err != nil {
			return err
		}
		logger.Info("record edited",
			zap.Int("category", editCategoryIndex),
			zap.Int("row", editRow),
			zap.String("before", raw),
			zap.String("after", fields.Encode()))

		out := outputPath(args[0], editOutput)
		if err := saveDocument(doc, out, cmd.OutOrStdout()); err != nil {
			return err
		}
		if out != stdoutPath {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s: %s\n", raw, fields.Encode(), out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().IntVar(&editCategoryIndex, "category-index", 0, "Index of the category")
	editCmd.Flags().IntVar(&editRow, "row", 0, "Row of the record within the category")
	for i, name := range editFlagNames {
		editCmd.Flags().StringVar(&editValues[i], name, "", fmt.Sprintf("New %s value", record.Titles[i]))
	}
	editCmd.Flags().StringVarP(&editOutput, "output", "o", "", "Output file (\"-\" for stdout)")
	_ = editCmd.MarkFlagRequired("category-index")
	_ = editCmd.MarkFlagRequired("row")
}
