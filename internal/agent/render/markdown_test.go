package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agdev/finagent/internal/agent/model"
)

func TestCompanyFinancials(t *testing.T) {
	out := CompanyFinancials(&model.CompanyFinancials{
		Symbol: "AAPL", CompanyName: "Apple Inc.", MarketCap: 3_400_000_000_000,
		Industry: "Consumer Electronics", Sector: "Technology", Website: "https://www.apple.com",
		Beta: 1.2399, Price: 227.5,
	})
	assert.True(t, strings.HasPrefix(out, "## Company Overview\n"))
	assert.Contains(t, out, "- **Market Capitalization**: 3400000000000\n")
	assert.Contains(t, out, "- **Website**: [https://www.apple.com](https://www.apple.com)\n")
	assert.Contains(t, out, "- **Beta**: 1.240\n")
	assert.Contains(t, out, "- **Current Price**: $227.50\n")

	assert.Equal(t, NoCompanyFinancials, CompanyFinancials(nil))
}

func TestIncomeStatement(t *testing.T) {
	out := IncomeStatement(&model.IncomeStatement{
		Date: "2024-09-28", Revenue: 391035000000, GrossProfit: 180683000000,
		NetIncome: 93736000000, EBITDA: 134661000000, EPS: 6.11, EPSDiluted: 6.08,
	})
	assert.True(t, strings.HasPrefix(out, "## Income Statement (as of 2024-09-28)\n"))
	assert.Contains(t, out, "- **Revenue**: $391035000000.00\n")
	assert.Contains(t, out, "- **EPS (Diluted)**: 6.08\n")
	assert.Equal(t, NoIncomeStatement, IncomeStatement(nil))
}

func TestStockPrice(t *testing.T) {
	out := StockPrice(&model.StockPrice{
		Symbol: "AAPL", Price: 230.1, Volume: 1000, PriceAvg50: 225, PriceAvg200: 200.456, EPS: 6.1, PE: 37.72,
		EarningsAnnouncement: time.Date(2024, 10, 31, 20, 0, 0, 0, time.UTC),
	})
	assert.Contains(t, out, "- **200-Day Average Price**: $200.46\n")
	assert.Contains(t, out, "- **Earnings Announcement**: 2024-10-31T20:00:00Z\n")

	assert.Contains(t, StockPrice(&model.StockPrice{}), "- **Earnings Announcement**: N/A\n")
	assert.Equal(t, NoStockPrice, StockPrice(nil))
}

func TestReportOrderAndPlaceholders(t *testing.T) {
	out := Report("## Company Overview\n- a\n", "", "## Stock Price Information\n- b\n")

	cf := strings.Index(out, "## Company Overview")
	is := strings.Index(out, NoIncomeStatement)
	sp := strings.Index(out, "## Stock Price Information")
	assert.True(t, cf >= 0 && is > cf && sp > is, out)

	empty := Report("", "", "")
	assert.Equal(t, NoCompanyFinancials+"\n\n"+NoIncomeStatement+"\n\n"+NoStockPrice+"\n", empty)
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "# Stock Price for (AAPL) \n", Header(model.CategoryStockPrice, "AAPL"))
	assert.Equal(t, "# Report for (MSFT) \n", Header(model.CategoryReport, "MSFT"))
	assert.Equal(t, "# Income statement for (X) \n", Header(model.CategoryIncomeStatement, "X"))
}
