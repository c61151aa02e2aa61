// =============================================================================
// Trader Config Editor - Main Entry Point
// =============================================================================
//
// USAGE:
//   tradercfg show FILE        - Show the overview or a category
//   tradercfg apply FILE       - Global price change and stock override
//   tradercfg adjust FILE      - Price change for selected categories
//   tradercfg edit FILE        - Edit a single record
//   tradercfg validate FILE    - Report problems
//   tradercfg grid ...         - XLSX export and import
//   tradercfg process          - Apply profiles to the input directory
//   tradercfg serve            - HTTP API
//   tradercfg version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Document model, pricing, bulk operations and adapters
//   - pkg/       : Shared file utilities
//   - profiles/  : Price profiles used by 'process'
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/trader-config-editor/cmd"
)

func main() {
	cmd.Execute()
}
