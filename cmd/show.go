package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/internal/record"
)

var showCategory string

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Show the configuration overview or the records of a category",
	Long: `Without --category, show prints the configuration flags and the list of
categories. With --category, it prints the editable records of that
category as a table; the ROW column is the position used by 'edit'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		if showCategory == "" {
			return printOverview(cmd.OutOrStdout(), doc)
		}

		cat := findCategory(doc, showCategory)
		if cat == nil {
			return fmt.Errorf("category %q not found", showCategory)
		}
		return printCategory(cmd.OutOrStdout(), cat)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showCategory, "category", "", "Category name to list")
}

func findCategory(doc *document.Document, name string) *document.Category {
	for _, cat := range doc.Categories() {
		if cat.Name() == name || cat.DisplayName() == name {
			return cat
		}
	}
	return nil
}

func printOverview(out io.Writer, doc *document.Document) error {
	ov := doc.Overview()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Version:\t%s\n", ov.Version)
	fmt.Fprintf(tw, "Auto Calculation:\t%s\n", ov.AutoCalculation)
	fmt.Fprintf(tw, "Auto Destock At Restart:\t%s\n", ov.AutoDestockAtRestart)
	fmt.Fprintf(tw, "Default Trader Stock:\t%s\n", ov.DefaultTraderStock)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "INDEX\tCATEGORY\tPRODUCTS\tRECORDS")
	for _, cat := range doc.Categories() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", cat.Index(), cat.DisplayName(), cat.Len(), len(cat.Rows()))
	}
	return tw.Flush()
}

func printCategory(out io.Writer, cat *document.Category) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := append([]string{"ROW"}, record.Titles...)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, row := range cat.Rows() {
		fmt.Fprintf(tw, "%d\t%s\n", row.Index, strings.Join(row.Fields.Values(), "\t"))
	}
	return tw.Flush()
}
