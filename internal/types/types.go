// =============================================================================
// Trader Config Editor - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - bulk
//   - validation
//   - server
//
// =============================================================================

package types

import "fmt"

// =============================================================================
// RECORD REFERENCES
// =============================================================================

// RecordRef points at one raw product string inside a document.
// Both indexes are 0-based positions in the stored lists, so they stay
// valid for records that cannot be decoded and are hidden from the grid.
type RecordRef struct {
	// CategoryIndex is the position of the category in TraderCategories.
	CategoryIndex int `json:"category_index"`

	// CategoryName is the CategoryName value of that category (may be empty).
	CategoryName string `json:"category_name"`

	// ProductIndex is the position of the record in the category's Products.
	ProductIndex int `json:"product_index"`

	// Raw is the record string as stored when the reference was taken.
	Raw string `json:"raw"`
}

// String renders the reference for logs and CLI output.
func (r RecordRef) String() string {
	return fmt.Sprintf("%s[%d]#%d", r.CategoryName, r.CategoryIndex, r.ProductIndex)
}
