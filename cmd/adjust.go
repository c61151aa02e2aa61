package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/trader-config-editor/internal/bulk"
)

var (
	adjustCategories []string
	adjustPrice      float64
	adjustBuy        bool
	adjustSell       bool
	adjustOutput     string
)

var adjustCmd = &cobra.Command{
	Use:   "adjust FILE",
	Short: "Change the prices of selected categories",
	Long: `adjust changes the buy and/or sell price of every record in the named
categories by --price percent. Stock is never changed. Names that match no
category are ignored.`,
	Example: `  tradercfg adjust TraderPlusPriceConfig.json --category Weapons --category Ammo --price 25
  tradercfg adjust TraderPlusPriceConfig.json --category Food --price -10 --sell=false`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		rep, err := bulk.ApplyToCategories(doc, bulk.CategoryOptions{
			Categories:   adjustCategories,
			PricePercent: adjustPrice,
			ApplyToBuy:   adjustBuy,
			ApplyToSell:  adjustSell,
		})
		if err != nil {
			return err
		}
		logReport("categories", rep)

		out := outputPath(args[0], adjustOutput)
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
	rootCmd.AddCommand(adjustCmd)
	adjustCmd.Flags().StringArrayVar(&adjustCategories, "category", nil, "Category name (repeatable)")
	adjustCmd.Flags().Float64Var(&adjustPrice, "price", 0, "Price change in percent (-99 to 500)")
	adjustCmd.Flags().BoolVar(&adjustBuy, "buy", true, "Change buy prices")
	adjustCmd.Flags().BoolVar(&adjustSell, "sell", true, "Change sell prices")
	adjustCmd.Flags().StringVarP(&adjustOutput, "output", "o", "", "Output file (\"-\" for stdout)")
	_ = adjustCmd.MarkFlagRequired("category")
}
