package model

import "strings"

// Category is the classified intent of a user request.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryIncomeStatement
	CategoryCompanyFinancials
	CategoryStockPrice
	CategoryReport
	CategoryChat
)

var categoryNames = map[Category]string{
	CategoryUnknown:           "unknown",
	CategoryIncomeStatement:   "income_statement",
	CategoryCompanyFinancials: "company_financials",
	CategoryStockPrice:        "stock_price",
	CategoryReport:            "report",
	CategoryChat:              "chat",
}

// Categories lists every category the router may return, in prompt order.
var Categories = []Category{
	CategoryIncomeStatement,
	CategoryReport,
	CategoryCompanyFinancials,
	CategoryStockPrice,
	CategoryChat,
}

// ParseCategory maps a router label onto a Category. Surrounding whitespace, markdown emphasis
// and case are ignored; anything else yields CategoryUnknown.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), "*`\"'"))
	for c, name := range categoryNames {
		if c != CategoryUnknown && name == s {
			return c
		}
	}
	return CategoryUnknown
}

// String returns the wire literal of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryUnknown]
}

// Label is the human readable form used in answer headers and conversation records.
func (c Category) Label() string {
	switch c {
	case CategoryIncomeStatement:
		return "Income statement"
	case CategoryCompanyFinancials:
		return "Company financials"
	case CategoryStockPrice:
		return "Stock Price"
	case CategoryReport:
		return "Report"
	case CategoryChat:
		return "Chat"
	default:
		return "Unknown"
	}
}

// IsDataset reports whether the category maps to exactly one data fetcher.
func (c Category) IsDataset() bool {
	switch c {
	case CategoryIncomeStatement, CategoryCompanyFinancials, CategoryStockPrice:
		return true
	default:
		return false
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}
