package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/xlsxgrid"
)

var (
	gridExportOutput string
	gridImportOutput string
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Edit the records of a configuration in a spreadsheet",
	Long: `grid export writes the editable records to an XLSX workbook with one
sheet per category. After editing the workbook, grid import writes the
changed rows back into the configuration. Do not rename sheets or change
the Row column.`,
}

var gridExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the category grid to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		out := gridExportOutput
		if out == "" {
			out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".xlsx"
		}

		f, err := xlsxgrid.Export(doc)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(out); err != nil {
			return fmt.Errorf("failed to save workbook: %w", err)
		}

		logger.Info("grid exported", zap.String("file", out))
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
		return nil
	},
}

var gridImportCmd = &cobra.Command{
	Use:   "import FILE GRID.xlsx",
	Short: "Apply an edited XLSX workbook to a configuration",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[1], err)
		}
		defer f.Close()

		rep, err := xlsxgrid.Import(doc, f)
		if err != nil {
			return err
		}
		logger.Info("grid imported", zap.Int("changed", rep.Changed), zap.Int("unchanged", rep.Unchanged))

		out := outputPath(args[0], gridImportOutput)
		if err := saveDocument(doc, out, cmd.OutOrStdout()); err != nil {
			return err
		}
		if out != stdoutPath {
			fmt.Fprintf(cmd.ErrOrStderr(), "changed %d record(s), %d unchanged: %s\n", rep.Changed, rep.Unchanged, out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gridCmd)
	gridCmd.AddCommand(gridExportCmd, gridImportCmd)
	gridExportCmd.Flags().StringVarP(&gridExportOutput, "output", "o", "", "Workbook file (default FILE with .xlsx extension)")
	gridImportCmd.Flags().StringVarP(&gridImportOutput, "output", "o", "", "Output file (\"-\" for stdout)")
}
