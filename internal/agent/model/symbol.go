package model

import "strings"

// UnknownSymbol is the reserved sentinel for a symbol that could not be resolved.
const UnknownSymbol = "UNKNOWN"

// SymbolSource records how the symbol of an invocation was resolved.
type SymbolSource string

const (
	SymbolExtracted  SymbolSource = "extracted"
	SymbolRemembered SymbolSource = "remembered"
	SymbolUnresolved SymbolSource = "unresolved"
)

// IsUnknownSymbol reports whether s is empty or the UNKNOWN sentinel, ignoring case.
func IsUnknownSymbol(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, UnknownSymbol)
}

// NormalizeSymbol upper-cases a ticker and maps empty input to UnknownSymbol.
func NormalizeSymbol(s string) string {
	if IsUnknownSymbol(s) {
		return UnknownSymbol
	}
	return strings.ToUpper(strings.TrimSpace(s))
}
