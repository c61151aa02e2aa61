// =============================================================================
// Trader Config Editor - Bulk Mutator
// =============================================================================
//
// This module applies one user action to many product records at once.
//
// OPERATIONS:
//   ApplyGlobal       : every category; stock override and/or price change
//   ApplyToCategories : selected categories; buy and/or sell price change
//
// RULES:
//   - Records with fewer than six fields are skipped and never rewritten.
//   - A touched record is re-encoded from its six fields, so parts beyond
//     the sixth are dropped (see record.ExtraFields).
//   - A price that is not numeric is left as it is and reported; the rest
//     of the record and the rest of the document are still processed.
//   - Repeated non-zero changes compound.
//
// =============================================================================

package bulk

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/internal/pricing"
	"github.com/ginjaninja78/trader-config-editor/internal/record"
	"github.com/ginjaninja78/trader-config-editor/internal/types"
)

var validate = validator.New()

// GlobalOptions parameterise ApplyGlobal.
type GlobalOptions struct {
	// PricePercent is applied to buy and sell prices; 0 leaves them alone.
	PricePercent float64 `json:"price_percent" yaml:"price_percent" validate:"gte=-99,lte=500"`

	// Stock replaces the stock field verbatim when non-empty.
	Stock string `json:"stock" yaml:"stock"`
}

// CategoryOptions parameterise ApplyToCategories.
type CategoryOptions struct {
	// Categories are matched against CategoryName.
	Categories []string `json:"categories" yaml:"categories"`

	PricePercent float64 `json:"price_percent" yaml:"price_percent" validate:"gte=-99,lte=500"`
	ApplyToBuy   bool    `json:"apply_to_buy" yaml:"apply_to_buy"`
	ApplyToSell  bool    `json:"apply_to_sell" yaml:"apply_to_sell"`
}

// PriceError is a price field that could not be transformed.
type PriceError struct {
	Ref   types.RecordRef `json:"ref"`
	Field string          `json:"field"`
	Value string          `json:"value"`
	Err   error           `json:"-"`
}

func (e PriceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Ref, e.Field, e.Err)
}

// Report describes what a bulk operation did.
type Report struct {
	// Categories is the number of categories the operation visited.
	Categories int `json:"categories"`

	// Updated is the number of records whose stored string changed.
	Updated int `json:"updated"`

	// Skipped are the records that could not be decoded.
	Skipped []types.RecordRef `json:"skipped"`

	// PriceErrors are fields left unchanged because they were not numeric.
	PriceErrors []PriceError `json:"price_errors"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ApplyGlobal applies a stock override and a price change to every
// decodable record of every category.
func ApplyGlobal(doc *document.Document, opts GlobalOptions) (Report, error) {
	var rep Report
	if err := check(opts); err != nil {
		return rep, err
	}
	if opts.PricePercent == 0 && opts.Stock == "" {
		return rep, nil
	}

	for _, cat := range doc.Categories() {
		rep.Categories++
		eachRecord(cat, &rep, func(ref types.RecordRef, f *record.Fields) {
			if opts.Stock != "" {
				f.Stock = opts.Stock
			}
			if opts.PricePercent != 0 {
				adjustField(&rep, ref, "buy_price", &f.BuyPrice, opts.PricePercent)
				adjustField(&rep, ref, "sell_price", &f.SellPrice, opts.PricePercent)
			}
		})
	}

	return rep, nil
}

// ApplyToCategories applies a price change to the buy and/or sell prices of
// the categories named in opts. Stock is never touched. Unknown names match
// nothing.
func ApplyToCategories(doc *document.Document, opts CategoryOptions) (Report, error) {
	var rep Report
	if err := check(opts); err != nil {
		return rep, err
	}
	if opts.PricePercent == 0 || len(opts.Categories) == 0 || (!opts.ApplyToBuy && !opts.ApplyToSell) {
		return rep, nil
	}

	selected := make(map[string]bool, len(opts.Categories))
	for _, name := range opts.Categories {
		selected[name] = true
	}

	for _, cat := range doc.Categories() {
		if !selected[cat.Name()] {
			continue
		}
		rep.Categories++
		eachRecord(cat, &rep, func(ref types.RecordRef, f *record.Fields) {
			if opts.ApplyToBuy {
				adjustField(&rep, ref, "buy_price", &f.BuyPrice, opts.PricePercent)
			}
			if opts.ApplyToSell {
				adjustField(&rep, ref, "sell_price", &f.SellPrice, opts.PricePercent)
			}
		})
	}

	return rep, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func check(opts any) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("%w: %v", pricing.ErrPercentOutOfRange, err)
	}
	return nil
}

// eachRecord decodes every product of cat, lets fn mutate it and stores the
// re-encoded string. Malformed products are reported and left as they are;
// a record whose encoding is unchanged is not counted.
func eachRecord(cat *document.Category, rep *Report, fn func(types.RecordRef, *record.Fields)) {
	for i := 0; i < cat.Len(); i++ {
		raw, err := cat.Product(i)
		if err != nil {
			continue
		}

		ref := types.RecordRef{
			CategoryIndex: cat.Index(),
			CategoryName:  cat.Name(),
			ProductIndex:  i,
			Raw:           raw,
		}

		f, ok := record.Decode(raw)
		if !ok {
			rep.Skipped = append(rep.Skipped, ref)
			continue
		}

		fn(ref, &f)

		encoded := f.Encode()
		if encoded == raw {
			continue
		}
		if err := cat.SetProduct(i, encoded); err == nil {
			rep.Updated++
		}
	}
}

func adjustField(rep *Report, ref types.RecordRef, field string, value *string, percent float64) {
	out, err := pricing.Adjust(*value, percent)
	if err != nil {
		rep.PriceErrors = append(rep.PriceErrors, PriceError{Ref: ref, Field: field, Value: *value, Err: err})
		return
	}
	*value = out
}
