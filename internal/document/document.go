// =============================================================================
// Trader Config Editor - Document Model
// =============================================================================
//
// This module holds an uploaded trader configuration in memory.
//
// DOCUMENT SHAPE:
//   {
//     "Version": "2.5",
//     "EnableAutoCalculation": 0,
//     "EnableAutoDestockAtRestart": 0,
//     "EnableDefaultTraderStock": 0,
//     "TraderCategories": [
//       {
//         "CategoryName": "Weapons",
//         "Products": ["Rifle,A,B,10,100,50"]
//       }
//     ]
//   }
//
// Only TraderCategories[].CategoryName and TraderCategories[].Products are
// interpreted. Every other key, at any level, is a passthrough value: it is
// written back in its original position with its original literal text.
//
// =============================================================================

package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ginjaninja78/trader-config-editor/internal/record"
)

// Well-known keys of a trader configuration.
const (
	KeyVersion              = "Version"
	KeyAutoCalculation      = "EnableAutoCalculation"
	KeyAutoDestockAtRestart = "EnableAutoDestockAtRestart"
	KeyDefaultTraderStock   = "EnableDefaultTraderStock"
	KeyCategories           = "TraderCategories"
	KeyCategoryName         = "CategoryName"
	KeyProducts             = "Products"
)

// Download settings for a serialized document.
const (
	DownloadFileName = "modified_config.json"
	ContentType      = "application/json"
)

// NotAvailable is shown for passthrough keys missing from the document.
const NotAvailable = "N/A"

// indent is the per-level indentation of serialized documents.
const indent = "  "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrIndexOutOfRange is returned for a category or product index that does
// not exist.
var ErrIndexOutOfRange = errors.New("index out of range")

// ParseError reports input bytes that are not a usable document. The
// underlying parser message is kept so it can be shown to the user.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse document: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the in-memory form of one configuration file.
type Document struct {
	root          object
	hasCategories bool
	categories    []*Category
}

// Category is one entry of TraderCategories.
type Category struct {
	index       int
	name        string
	fields      object
	hasProducts bool
	products    []string
}

// Overview holds the passthrough flags rendered for display.
type Overview struct {
	Version              string `json:"version"`
	AutoCalculation      string `json:"auto_calculation"`
	AutoDestockAtRestart string `json:"auto_destock_at_restart"`
	DefaultTraderStock   string `json:"default_trader_stock"`
}

// Row is a decodable product with its position in the Products list.
type Row struct {
	Index  int           `json:"index"`
	Fields record.Fields `json:"fields"`
}

// Load reads and parses a whole document from r.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// Parse builds a Document from JSON bytes. Any failure is a *ParseError and
// no partial document is returned.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	root, err := decodeObject(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	doc := &Document{root: root}

	raw, ok := root.get(KeyCategories)
	if !ok {
		return doc, nil
	}
	doc.hasCategories = true

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || !isArray(raw) {
		return nil, &ParseError{Err: fmt.Errorf("%s must be an array", KeyCategories)}
	}

	doc.categories = make([]*Category, 0, len(items))
	for i, item := range items {
		cat, err := parseCategory(i, item)
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("%s[%d]: %w", KeyCategories, i, err)}
		}
		doc.categories = append(doc.categories, cat)
	}

	return doc, nil
}

func parseCategory(index int, raw json.RawMessage) (*Category, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	cat := &Category{index: index, fields: fields}

	if name, ok := fields.get(KeyCategoryName); ok {
		cat.name = literal(name)
	}

	if products, ok := fields.get(KeyProducts); ok {
		if !isArray(products) {
			return nil, fmt.Errorf("%s must be an array of strings", KeyProducts)
		}
		if err := json.Unmarshal(products, &cat.products); err != nil {
			return nil, fmt.Errorf("%s must be an array of strings: %w", KeyProducts, err)
		}
		cat.hasProducts = true
	}

	return cat, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Marshal serializes the document as two-space indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	root := d.root
	if d.hasCategories {
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, cat := range d.categories {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := cat.appendTo(&buf); err != nil {
				return nil, fmt.Errorf("encode category %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
		root = root.with(KeyCategories, buf.Bytes())
	}

	var compact bytes.Buffer
	if err := root.appendTo(&compact); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	return out.Bytes(), nil
}

// Overview returns the passthrough flags, NotAvailable for missing keys.
func (d *Document) Overview() Overview {
	get := func(key string) string {
		if raw, ok := d.root.get(key); ok {
			return literal(raw)
		}
		return NotAvailable
	}
	return Overview{
		Version:              get(KeyVersion),
		AutoCalculation:      get(KeyAutoCalculation),
		AutoDestockAtRestart: get(KeyAutoDestockAtRestart),
		DefaultTraderStock:   get(KeyDefaultTraderStock),
	}
}

// Passthrough returns the raw literal of a top-level key.
func (d *Document) Passthrough(key string) (json.RawMessage, bool) {
	return d.root.get(key)
}

// Categories returns the categories in document order.
func (d *Document) Categories() []*Category {
	return d.categories
}

// Category returns the category at index i.
func (d *Document) Category(i int) (*Category, error) {
	if i < 0 || i >= len(d.categories) {
		return nil, fmt.Errorf("category %d: %w", i, ErrIndexOutOfRange)
	}
	return d.categories[i], nil
}

// CategoryNames returns the display names in document order.
func (d *Document) CategoryNames() []string {
	names := make([]string, len(d.categories))
	for i, cat := range d.categories {
		names[i] = cat.DisplayName()
	}
	return names
}

// Rows returns the decodable records of category i. Malformed records are
// left out; Row.Index still refers to the raw Products position.
func (d *Document) Rows(i int) ([]Row, error) {
	cat, err := d.Category(i)
	if err != nil {
		return nil, err
	}
	return cat.Rows(), nil
}

// SetRecord overwrites one product with the encoding of f. Field contents
// are not validated.
func (d *Document) SetRecord(categoryIndex, productIndex int, f record.Fields) error {
	cat, err := d.Category(categoryIndex)
	if err != nil {
		return err
	}
	return cat.SetProduct(productIndex, f.Encode())
}

// =============================================================================
// CATEGORY
// =============================================================================

// Index is the position of the category in TraderCategories.
func (c *Category) Index() int {
	return c.index
}

// Name is the CategoryName value, empty when the key is missing.
func (c *Category) Name() string {
	return c.name
}

// DisplayName is Name, or "Category <index>" when the name is missing.
func (c *Category) DisplayName() string {
	if _, ok := c.fields.get(KeyCategoryName); ok {
		return c.name
	}
	return fmt.Sprintf("Category %d", c.index)
}

// Len is the number of raw product strings.
func (c *Category) Len() int {
	return len(c.products)
}

// Product returns the raw product string at i.
func (c *Category) Product(i int) (string, error) {
	if i < 0 || i >= len(c.products) {
		return "", fmt.Errorf("product %d of %q: %w", i, c.name, ErrIndexOutOfRange)
	}
	return c.products[i], nil
}

// Products returns a copy of the raw product strings.
func (c *Category) Products() []string {
	out := make([]string, len(c.products))
	copy(out, c.products)
	return out
}

// SetProduct replaces the raw product string at i.
func (c *Category) SetProduct(i int, raw string) error {
	if i < 0 || i >= len(c.products) {
		return fmt.Errorf("product %d of %q: %w", i, c.name, ErrIndexOutOfRange)
	}
	c.products[i] = raw
	return nil
}

// Rows returns the decodable records with their raw positions.
func (c *Category) Rows() []Row {
	rows := make([]Row, 0, len(c.products))
	for i, p := range c.products {
		if f, ok := record.Decode(p); ok {
			rows = append(rows, Row{Index: i, Fields: f})
		}
	}
	return rows
}

func (c *Category) appendTo(buf *bytes.Buffer) error {
	fields := c.fields
	if c.hasProducts {
		products := c.products
		if products == nil {
			products = []string{}
		}
		raw, err := marshalNoEscape(products)
		if err != nil {
			return err
		}
		fields = fields.with(KeyProducts, raw)
	}
	return fields.appendTo(buf)
}
