// =============================================================================
// Trader Config Editor - Record Codec
// =============================================================================
//
// A trader product is stored as a single comma-delimited string:
//
//   name,col2,col3,stock,buyPrice,sellPrice
//
// EXAMPLE:
//   "Rifle,A,B,10,100,50"
//
// There is no quoting or escaping. A value containing a comma cannot be
// represented, and a record with more than six parts loses the extra parts
// when it is re-encoded. Both limitations are accepted: the codec never
// tries to repair them.
//
// =============================================================================

package record

import (
	"errors"
	"fmt"
	"strings"
)

// Separator is the literal field separator of a product record.
const Separator = ","

// FieldCount is the number of fields a record must have to decode.
const FieldCount = 6

// ErrNotEditable is returned by Merge when a partial edit targets a record
// that does not decode.
var ErrNotEditable = errors.New("record is not editable")

// Columns are the stable column keys, in record order.
var Columns = []string{"name", "col2", "col3", "stock", "buy_price", "sell_price"}

// Titles are the human-readable column headers, in record order.
var Titles = []string{"Item Name", "Column 2", "Column 3", "Stock Level", "Buy Price", "Sell Price"}

// Fields is the decoded form of a product record.
type Fields struct {
	Name      string `json:"name"`
	Col2      string `json:"col2"`
	Col3      string `json:"col3"`
	Stock     string `json:"stock"`
	BuyPrice  string `json:"buy_price"`
	SellPrice string `json:"sell_price"`
}

// Decode splits a record on commas and returns its first six fields.
// ok is false when the record has fewer than six parts; callers skip such
// records and must leave the stored string untouched.
func Decode(s string) (Fields, bool) {
	parts := strings.Split(s, Separator)
	if len(parts) < FieldCount {
		return Fields{}, false
	}
	return Fields{
		Name:      parts[0],
		Col2:      parts[1],
		Col3:      parts[2],
		Stock:     parts[3],
		BuyPrice:  parts[4],
		SellPrice: parts[5],
	}, true
}

// Encode joins the six fields with commas in fixed order.
func (f Fields) Encode() string {
	return strings.Join(f.Values(), Separator)
}

// Values returns the fields as a slice in record order.
func (f Fields) Values() []string {
	return []string{f.Name, f.Col2, f.Col3, f.Stock, f.BuyPrice, f.SellPrice}
}

// FromValues builds Fields from exactly six values in record order.
func FromValues(values []string) (Fields, error) {
	if len(values) != FieldCount {
		return Fields{}, fmt.Errorf("record needs %d values, got %d", FieldCount, len(values))
	}
	return Fields{
		Name:      values[0],
		Col2:      values[1],
		Col3:      values[2],
		Stock:     values[3],
		BuyPrice:  values[4],
		SellPrice: values[5],
	}, nil
}

// ExtraFields reports how many trailing parts a decode/encode round trip
// would drop from s. It is 0 for records with six parts or fewer.
func ExtraFields(s string) int {
	n := strings.Count(s, Separator) + 1
	if n <= FieldCount {
		return 0
	}
	return n - FieldCount
}

// HasSeparator reports whether a field value would corrupt the encoding.
func HasSeparator(value string) bool {
	return strings.Contains(value, Separator)
}

// SeparatorColumns returns the column keys of the fields whose value
// contains the separator. Encoding such fields shifts every later field.
func (f Fields) SeparatorColumns() []string {
	var cols []string
	for i, v := range f.Values() {
		if HasSeparator(v) {
			cols = append(cols, Columns[i])
		}
	}
	return cols
}

// Merge overlays updates onto the decoded form of raw. updates is indexed
// in record order; a nil entry keeps the current value. A record that does
// not decode can only be replaced as a whole: unless all six values are
// given, Merge returns ErrNotEditable and raw must stay as it is.
func Merge(raw string, updates [FieldCount]*string) (Fields, error) {
	current, ok := Decode(raw)
	if !ok {
		for _, u := range updates {
			if u == nil {
				return Fields{}, fmt.Errorf("%w: %q has fewer than %d fields", ErrNotEditable, raw, FieldCount)
			}
		}
	}

	values := current.Values()
	for i, u := range updates {
		if u != nil {
			values[i] = *u
		}
	}
	return FromValues(values)
}
