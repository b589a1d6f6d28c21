// Package errors provides structured, actionable diagnostics for reactor.
//
// Every diagnostic has a registered code that maps to a category, a severity,
// a short message, a longer explanation and a documentation URL. The runtime
// logs codes through slog; the CLI renders them with Format.
//
// # Error Codes
//
//   - R001-R009: runtime, scheduler and watch diagnostics
//   - C001-C009: configuration errors
//   - S001-S009: scenario file errors
//
// # Usage
//
//	err := errors.New("S002").
//	    WithLocation("cart.yaml", 12, 9).
//	    WithSuggestion(`Check that "items.3" exists in state`)
//
//	fmt.Println(err.Format())
package errors
