// Package render turns typed financial records into the markdown blocks shown to the user.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/agdev/finagent/internal/agent/model"
)

const (
	NoCompanyFinancials = "No company financials were obtained"
	NoIncomeStatement   = "No income statement was obtained"
	NoStockPrice        = "No stock price information was obtained"
)

func CompanyFinancials(cf *model.CompanyFinancials) string {
	if cf == nil {
		return NoCompanyFinancials
	}
	var b strings.Builder
	b.WriteString("## Company Overview\n")
	fmt.Fprintf(&b, "- **Name**: %s\n", cf.CompanyName)
	fmt.Fprintf(&b, "- **Symbol**: %s\n", cf.Symbol)
	fmt.Fprintf(&b, "- **Market Capitalization**: %.0f\n", cf.MarketCap)
	fmt.Fprintf(&b, "- **Industry**: %s\n", cf.Industry)
	fmt.Fprintf(&b, "- **Sector**: %s\n", cf.Sector)
	fmt.Fprintf(&b, "- **Website**: [%s](%s)\n", cf.Website, cf.Website)
	fmt.Fprintf(&b, "- **Beta**: %.3f\n", cf.Beta)
	fmt.Fprintf(&b, "- **Current Price**: $%.2f\n", cf.Price)
	return b.String()
}

func IncomeStatement(is *model.IncomeStatement) string {
	if is == nil {
		return NoIncomeStatement
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Income Statement (as of %s)\n", is.Date)
	fmt.Fprintf(&b, "- **Revenue**: $%.2f\n", is.Revenue)
	fmt.Fprintf(&b, "- **Gross Profit**: $%.2f\n", is.GrossProfit)
	fmt.Fprintf(&b, "- **Net Income**: $%.2f\n", is.NetIncome)
	fmt.Fprintf(&b, "- **EBITDA**: $%.2f\n", is.EBITDA)
	fmt.Fprintf(&b, "- **EPS**: %.2f\n", is.EPS)
	fmt.Fprintf(&b, "- **EPS (Diluted)**: %.2f\n", is.EPSDiluted)
	return b.String()
}

func StockPrice(sp *model.StockPrice) string {
	if sp == nil {
		return NoStockPrice
	}
	var b strings.Builder
	b.WriteString("## Stock Price Information\n")
	fmt.Fprintf(&b, "- **Current Price**: $%.2f\n", sp.Price)
	fmt.Fprintf(&b, "- **Volume**: %.2f\n", sp.Volume)
	fmt.Fprintf(&b, "- **50-Day Average Price**: $%.2f\n", sp.PriceAvg50)
	fmt.Fprintf(&b, "- **200-Day Average Price**: $%.2f\n", sp.PriceAvg200)
	fmt.Fprintf(&b, "- **EPS**: %.2f\n", sp.EPS)
	fmt.Fprintf(&b, "- **PE Ratio**: %.2f\n", sp.PE)
	fmt.Fprintf(&b, "- **Earnings Announcement**: %s\n", announcement(sp.EarningsAnnouncement))
	return b.String()
}

func announcement(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC3339)
}

// Report merges the three rendered blocks, always in the order company financials,
// income statement, stock price. Empty blocks become their placeholder.
func Report(companyFinancials, incomeStatement, stockPrice string) string {
	sections := []struct{ body, placeholder string }{
		{companyFinancials, NoCompanyFinancials},
		{incomeStatement, NoIncomeStatement},
		{stockPrice, NoStockPrice},
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		body := strings.TrimSpace(s.body)
		if body == "" {
			body = s.placeholder
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// Header is the first line of a data answer, e.g. "# Stock Price for (AAPL) \n".
func Header(c model.Category, symbol string) string {
	return fmt.Sprintf("# %s for (%s) \n", c.Label(), symbol)
}
