package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/bulk"
)

var (
	applyPrice  float64
	applyStock  string
	applyOutput string
)

var applyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Apply a global price change and stock override to every category",
	Long: `apply changes the buy and sell price of every record by --price percent
and, when --stock is given, replaces every stock value with it verbatim
("-1" means unlimited).

Integer prices are rounded down; decimal prices are rounded to two places.
Unlimited prices ("-1") are never changed.`,
	Example: `  tradercfg apply TraderPlusPriceConfig.json --price 10
  tradercfg apply TraderPlusPriceConfig.json --stock -1 -o out.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		rep, err := bulk.ApplyGlobal(doc, bulk.GlobalOptions{
			PricePercent: applyPrice,
			Stock:        applyStock,
		})
		if err != nil {
			return err
		}
		logReport("global", rep)

		out := outputPath(args[0], applyOutput)
		if err := saveDocument(doc, out, cmd.OutOrStdout()); err != nil {
			return err
		}
		if out != stdoutPath {
			printReport(cmd.ErrOrStderr(), rep, out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().Float64Var(&applyPrice, "price", 0, "Price change in percent (-99 to 500)")
	applyCmd.Flags().StringVar(&applyStock, "stock", "", "Stock value for every record; empty keeps stock")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Output file (\"-\" for stdout)")
}

func logReport(op string, rep bulk.Report) {
	logger.Info("bulk operation applied",
		zap.String("operation", op),
		zap.Int("categories", rep.Categories),
		zap.Int("updated", rep.Updated),
		zap.Int("skipped", len(rep.Skipped)))
	for _, ref := range rep.Skipped {
		logger.Debug("skipped malformed record", zap.Stringer("record", ref), zap.String("raw", ref.Raw))
	}
	for _, pe := range rep.PriceErrors {
		logger.Warn("price left unchanged", zap.Stringer("record", pe.Ref), zap.String("field", pe.Field), zap.String("value", pe.Value))
	}
}

func printReport(out io.Writer, rep bulk.Report, path string) {
	fmt.Fprintf(out, "updated %d record(s) in %d categories, skipped %d, %d price error(s): %s\n",
		rep.Updated, rep.Categories, len(rep.Skipped), len(rep.PriceErrors), path)
}
